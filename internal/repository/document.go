package repository

import (
	"context"
	"errors"
	"time"

	ctxutil "github.com/Payphone-Digital/locatory/pkg/context"
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"github.com/Payphone-Digital/locatory/pkg/query"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ErrInvalidID is returned when a path id is not a valid ObjectID.
var ErrInvalidID = errors.New("invalid object id")

// ParseObjectID converts a hex id from a URL.
func ParseObjectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

// MongoFinder runs list queries against one collection. Documents are
// returned untyped so projections do not pad results with zero values.
type MongoFinder struct {
	coll *mongo.Collection
	base bson.D
}

func NewMongoFinder(coll *mongo.Collection) *MongoFinder {
	return &MongoFinder{coll: coll}
}

// Scoped returns a finder restricted to documents matching base, used by
// nested listings such as the reviews of one place.
func (f *MongoFinder) Scoped(base bson.D) *MongoFinder {
	return &MongoFinder{coll: f.coll, base: base}
}

// filter joins the scope and the client filter with $and so a client key
// naming a scoped field cannot replace the scope.
func (f *MongoFinder) filter(filter query.Filter) bson.D {
	doc := filter.BSON()
	switch {
	case len(f.base) == 0:
		return doc
	case len(doc) == 0:
		return f.base
	}
	return bson.D{{Key: "$and", Value: bson.A{f.base, doc}}}
}

func (f *MongoFinder) Count(ctx context.Context, filter query.Filter) (int64, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "MongoFinder.Count")

	total, err := f.coll.CountDocuments(ctx, f.filter(filter))
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to count documents").
			String("collection", f.coll.Name()).
			Err(err).
			Log()
		return 0, err
	}
	return total, nil
}

func (f *MongoFinder) Find(ctx context.Context, spec *query.Spec, populate ...query.Populate) ([]bson.M, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "MongoFinder.Find")

	start := time.Now()
	var (
		cursor *mongo.Cursor
		err    error
	)
	if len(populate) == 0 {
		cursor, err = f.coll.Find(ctx, f.filter(spec.Filter), spec.FindOptions())
	} else {
		pipeline := spec.Pipeline(populate...)
		pipeline[0] = bson.D{{Key: "$match", Value: f.filter(spec.Filter)}}
		cursor, err = f.coll.Aggregate(ctx, pipeline)
	}
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to query documents").
			String("collection", f.coll.Name()).
			Err(err).
			Log()
		return nil, err
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	logger.DebugWithContext(ctx, "Documents listed").
		String("collection", f.coll.Name()).
		Int("count", len(docs)).
		Duration(time.Since(start)).
		Log()
	return docs, nil
}
