// Package query turns REST list query strings into a store-agnostic filter
// representation and serializes it for MongoDB and GORM.
package query

import (
	"errors"
	"fmt"
	"sort"
)

// Operator is a comparison operator accepted in "field[op]=value" keys.
type Operator string

const (
	OpEq  Operator = "eq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpIn  Operator = "in"
)

// operatorRank fixes the order of conditions sharing a field.
var operatorRank = map[Operator]int{
	OpEq:  0,
	OpGt:  1,
	OpGte: 2,
	OpLt:  3,
	OpLte: 4,
	OpIn:  5,
}

// Valid reports whether op is a supported operator.
func (op Operator) Valid() bool {
	_, ok := operatorRank[op]
	return ok
}

// Reserved query keys. They drive projection, ordering and paging and never
// become filter conditions.
const (
	KeySelect = "select"
	KeySort   = "sort"
	KeyPage   = "page"
	KeyLimit  = "limit"
)

// DefaultReservedKeys is the reserved key set used when a Translator is
// created without WithReservedKeys.
var DefaultReservedKeys = []string{KeySelect, KeySort, KeyPage, KeyLimit}

const (
	DefaultPage  = 1
	DefaultLimit = 25
	DefaultSort  = "-createdAt"
)

var (
	// ErrInvalidQuery wraps every error produced while parsing a query string.
	ErrInvalidQuery = errors.New("invalid query")

	ErrUnknownOperator = errors.New("unknown operator")
	ErrInvalidField    = errors.New("invalid field name")
	ErrInvalidValue    = errors.New("invalid value")
	ErrUnknownField    = errors.New("field not allowed")
)

// Ref is an identifier referencing another document. Store serializers may
// convert it to their native identifier type.
type Ref string

// Condition is a single "field op value" predicate.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// Filter is a conjunction of conditions kept in canonical order.
type Filter []Condition

// Normalize orders conditions by field and operator so two filters built
// from the same parameters compare equal regardless of key order.
func (f Filter) Normalize() Filter {
	out := make(Filter, len(f))
	copy(out, f)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		if out[i].Operator != out[j].Operator {
			return operatorRank[out[i].Operator] < operatorRank[out[j].Operator]
		}
		return fmt.Sprint(out[i].Value) < fmt.Sprint(out[j].Value)
	})
	return out
}

// Fields returns the distinct field names in filter order.
func (f Filter) Fields() []string {
	var fields []string
	seen := make(map[string]bool, len(f))
	for _, c := range f {
		if !seen[c.Field] {
			seen[c.Field] = true
			fields = append(fields, c.Field)
		}
	}
	return fields
}

// SortField is one key of a sort order.
type SortField struct {
	Field string
	Desc  bool
}

// Spec is the fully parsed form of a list request.
type Spec struct {
	Filter Filter
	Select []string
	Sort   []SortField
	Page   int
	Limit  int
}

// Skip returns the number of documents preceding the requested page.
func (s *Spec) Skip() int {
	return (s.Page - 1) * s.Limit
}

// Populate names a reference field to expand inline with a subset of the
// referenced document's fields.
type Populate struct {
	Path   string
	From   string
	Select []string
}
