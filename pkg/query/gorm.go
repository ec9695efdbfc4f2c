package query

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Columns maps query field names to SQL column names. Only listed fields
// may be filtered, selected or sorted on.
type Columns map[string]string

func (c Columns) column(field string) (clause.Column, error) {
	name, ok := c[field]
	if !ok {
		return clause.Column{}, fmt.Errorf("%w: %w: %q", ErrInvalidQuery, ErrUnknownField, field)
	}
	return clause.Column{Name: name}, nil
}

// ApplyGormFilter adds the filter's conditions to db as WHERE clauses.
func ApplyGormFilter(db *gorm.DB, filter Filter, columns Columns) (*gorm.DB, error) {
	for _, c := range filter.Normalize() {
		col, err := columns.column(c.Field)
		if err != nil {
			return nil, err
		}
		value := sqlValue(c.Value)

		var expr clause.Expression
		switch c.Operator {
		case OpEq:
			expr = clause.Eq{Column: col, Value: value}
		case OpGt:
			expr = clause.Gt{Column: col, Value: value}
		case OpGte:
			expr = clause.Gte{Column: col, Value: value}
		case OpLt:
			expr = clause.Lt{Column: col, Value: value}
		case OpLte:
			expr = clause.Lte{Column: col, Value: value}
		case OpIn:
			values, _ := value.([]any)
			expr = clause.IN{Column: col, Values: values}
		default:
			return nil, fmt.Errorf("%w: %w: %q", ErrInvalidQuery, ErrUnknownOperator, c.Operator)
		}
		db = db.Where(expr)
	}
	return db, nil
}

// ApplyGorm adds filter, projection, ordering and paging to db.
func ApplyGorm(db *gorm.DB, spec *Spec, columns Columns) (*gorm.DB, error) {
	db, err := ApplyGormFilter(db, spec.Filter, columns)
	if err != nil {
		return nil, err
	}

	if len(spec.Select) > 0 {
		selected := make([]string, 0, len(spec.Select))
		for _, f := range spec.Select {
			col, err := columns.column(f)
			if err != nil {
				return nil, err
			}
			selected = append(selected, col.Name)
		}
		db = db.Select(selected)
	}

	for _, sf := range spec.Sort {
		col, err := columns.column(sf.Field)
		if err != nil {
			return nil, err
		}
		db = db.Order(clause.OrderByColumn{Column: col, Desc: sf.Desc})
	}

	return db.Offset(spec.Skip()).Limit(spec.Limit), nil
}

func sqlValue(v any) any {
	switch val := v.(type) {
	case Ref:
		return string(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sqlValue(item)
		}
		return out
	default:
		return v
	}
}
