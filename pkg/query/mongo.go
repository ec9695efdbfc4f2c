package query

import (
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var mongoOperators = map[Operator]string{
	OpEq:  "$eq",
	OpGt:  "$gt",
	OpGte: "$gte",
	OpLt:  "$lt",
	OpLte: "$lte",
	OpIn:  "$in",
}

// BSON renders the filter as a MongoDB query document. A field with a
// single equality condition is matched directly; every other field gets an
// operator document.
func (f Filter) BSON() bson.D {
	f = f.Normalize()
	doc := bson.D{}
	for _, field := range f.Fields() {
		var conds []Condition
		for _, c := range f {
			if c.Field == field {
				conds = append(conds, c)
			}
		}

		if len(conds) == 1 && conds[0].Operator == OpEq {
			doc = append(doc, bson.E{Key: field, Value: mongoValue(conds[0].Value)})
			continue
		}

		ops := bson.D{}
		for _, c := range conds {
			ops = append(ops, bson.E{Key: mongoOperators[c.Operator], Value: mongoValue(c.Value)})
		}
		doc = append(doc, bson.E{Key: field, Value: ops})
	}
	return doc
}

func mongoValue(v any) any {
	switch val := v.(type) {
	case Ref:
		if oid, err := bson.ObjectIDFromHex(string(val)); err == nil {
			return oid
		}
		return string(val)
	case []any:
		out := make(bson.A, len(val))
		for i, item := range val {
			out[i] = mongoValue(item)
		}
		return out
	default:
		return v
	}
}

// Projection returns the inclusion projection for the selected fields, or
// nil when every field is wanted.
func (s *Spec) Projection() bson.D {
	return projection(s.Select)
}

func projection(fields []string) bson.D {
	if len(fields) == 0 {
		return nil
	}
	doc := make(bson.D, 0, len(fields))
	for _, f := range fields {
		doc = append(doc, bson.E{Key: f, Value: 1})
	}
	return doc
}

func (s *Spec) SortBSON() bson.D {
	doc := make(bson.D, 0, len(s.Sort))
	for _, sf := range s.Sort {
		dir := 1
		if sf.Desc {
			dir = -1
		}
		doc = append(doc, bson.E{Key: sf.Field, Value: dir})
	}
	return doc
}

// FindOptions returns projection, sort and paging for a plain find.
func (s *Spec) FindOptions() *options.FindOptionsBuilder {
	opts := options.Find().
		SetSkip(int64(s.Skip())).
		SetLimit(int64(s.Limit))
	if p := s.Projection(); p != nil {
		opts.SetProjection(p)
	}
	if len(s.Sort) > 0 {
		opts.SetSort(s.SortBSON())
	}
	return opts
}

// Pipeline returns the aggregation equivalent of a find with FindOptions,
// expanding each populate path with $lookup.
func (s *Spec) Pipeline(populate ...Populate) bson.A {
	pipeline := bson.A{
		bson.D{{Key: "$match", Value: s.Filter.BSON()}},
	}
	if len(s.Sort) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: s.SortBSON()}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$skip", Value: int64(s.Skip())}},
		bson.D{{Key: "$limit", Value: int64(s.Limit)}},
	)

	for _, p := range populate {
		lookup := bson.D{
			{Key: "from", Value: p.From},
			{Key: "localField", Value: p.Path},
			{Key: "foreignField", Value: "_id"},
		}
		if proj := projection(p.Select); proj != nil {
			lookup = append(lookup, bson.E{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$project", Value: proj}},
			}})
		}
		lookup = append(lookup, bson.E{Key: "as", Value: p.Path})

		pipeline = append(pipeline,
			bson.D{{Key: "$lookup", Value: lookup}},
			bson.D{{Key: "$unwind", Value: bson.D{
				{Key: "path", Value: "$" + p.Path},
				{Key: "preserveNullAndEmptyArrays", Value: true},
			}}},
		)
	}

	if proj := s.Projection(); proj != nil {
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: proj}})
	}
	return pipeline
}
