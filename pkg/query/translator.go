package query

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind is the declared type of a field, used to coerce query string values.
type Kind int

const (
	KindAuto Kind = iota
	KindString
	KindNumber
	KindBool
	KindTime
	KindRef
)

// Schema maps field names to their declared kind.
type Schema map[string]Kind

var (
	operatorKey = regexp.MustCompile(`^([^\[\]]+)\[([^\[\]]*)\]$`)
	fieldName   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
)

// Translator parses list query strings into a Spec.
type Translator struct {
	reserved     map[string]bool
	schema       Schema
	defaultPage  int
	defaultLimit int
	defaultSort  string
}

type Option func(*Translator)

// WithReservedKeys replaces the reserved key set.
func WithReservedKeys(keys ...string) Option {
	return func(t *Translator) {
		t.reserved = make(map[string]bool, len(keys))
		for _, k := range keys {
			t.reserved[k] = true
		}
	}
}

func WithSchema(schema Schema) Option {
	return func(t *Translator) { t.schema = schema }
}

func WithDefaultLimit(limit int) Option {
	return func(t *Translator) {
		if limit > 0 {
			t.defaultLimit = limit
		}
	}
}

func WithDefaultSort(sort string) Option {
	return func(t *Translator) { t.defaultSort = sort }
}

func NewTranslator(opts ...Option) *Translator {
	t := &Translator{
		defaultPage:  DefaultPage,
		defaultLimit: DefaultLimit,
		defaultSort:  DefaultSort,
	}
	WithReservedKeys(DefaultReservedKeys...)(t)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Parse builds a Spec from raw query parameters. values is never modified.
func (t *Translator) Parse(values url.Values) (*Spec, error) {
	filterValues := make(url.Values, len(values))
	for k, v := range values {
		if t.reserved[k] {
			continue
		}
		filterValues[k] = v
	}

	filter, err := t.parseFilter(filterValues)
	if err != nil {
		return nil, err
	}

	spec := &Spec{
		Filter: filter,
		Page:   positiveInt(values.Get(KeyPage), t.defaultPage),
		Limit:  positiveInt(values.Get(KeyLimit), t.defaultLimit),
	}
	// keep page*limit representable so skip and next-page math cannot wrap
	if spec.Page > math.MaxInt/spec.Limit {
		spec.Page = math.MaxInt / spec.Limit
	}

	if spec.Select, err = parseSelect(values.Get(KeySelect)); err != nil {
		return nil, err
	}

	sortParam := values.Get(KeySort)
	if sortParam == "" {
		sortParam = t.defaultSort
	}
	if spec.Sort, err = parseSort(sortParam); err != nil {
		return nil, err
	}

	return spec, nil
}

func (t *Translator) parseFilter(values url.Values) (Filter, error) {
	var filter Filter
	for key, raw := range values {
		field, op, err := splitKey(key)
		if err != nil {
			return nil, err
		}
		kind := t.schema[field]

		switch {
		case op == OpIn:
			var items []any
			for _, v := range raw {
				for _, part := range strings.Split(v, ",") {
					val, err := coerce(field, strings.TrimSpace(part), kind, false)
					if err != nil {
						return nil, err
					}
					items = append(items, val)
				}
			}
			filter = append(filter, Condition{Field: field, Operator: OpIn, Value: items})

		case op == OpEq && len(raw) > 1:
			items := make([]any, 0, len(raw))
			for _, v := range raw {
				val, err := coerce(field, v, kind, false)
				if err != nil {
					return nil, err
				}
				items = append(items, val)
			}
			filter = append(filter, Condition{Field: field, Operator: OpIn, Value: items})

		default:
			// repeated comparison keys keep the last value
			val, err := coerce(field, raw[len(raw)-1], kind, op != OpEq)
			if err != nil {
				return nil, err
			}
			filter = append(filter, Condition{Field: field, Operator: op, Value: val})
		}
	}
	return filter.Normalize(), nil
}

func splitKey(key string) (string, Operator, error) {
	field, op := key, OpEq
	if strings.ContainsAny(key, "[]") {
		m := operatorKey.FindStringSubmatch(key)
		if m == nil {
			return "", "", fmt.Errorf("%w: %w: %q", ErrInvalidQuery, ErrInvalidField, key)
		}
		field, op = m[1], Operator(m[2])
		if !op.Valid() {
			return "", "", fmt.Errorf("%w: %w: %q", ErrInvalidQuery, ErrUnknownOperator, m[2])
		}
	}
	if !fieldName.MatchString(field) {
		return "", "", fmt.Errorf("%w: %w: %q", ErrInvalidQuery, ErrInvalidField, field)
	}
	return field, op, nil
}

// coerce converts a raw value according to kind. Undeclared fields become
// numbers or times only when used with a range operator.
func coerce(field, raw string, kind Kind, comparison bool) (any, error) {
	switch kind {
	case KindString:
		return raw, nil
	case KindNumber:
		if n, ok := parseNumber(raw); ok {
			return n, nil
		}
	case KindBool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b, nil
		}
	case KindTime:
		if ts, ok := parseTime(raw); ok {
			return ts, nil
		}
	case KindRef:
		return Ref(raw), nil
	default:
		if !comparison {
			return raw, nil
		}
		if n, ok := parseNumber(raw); ok {
			return n, nil
		}
		if ts, ok := parseTime(raw); ok {
			return ts, nil
		}
		return raw, nil
	}
	return nil, fmt.Errorf("%w: %w: %s=%q", ErrInvalidQuery, ErrInvalidValue, field, raw)
}

func parseNumber(raw string) (any, bool) {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f, true
	}
	return nil, false
}

func parseTime(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func parseSelect(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var fields []string
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if !fieldName.MatchString(f) {
			return nil, fmt.Errorf("%w: %w: %q", ErrInvalidQuery, ErrInvalidField, f)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func parseSort(raw string) ([]SortField, error) {
	var fields []SortField
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		sf := SortField{Field: f}
		if strings.HasPrefix(f, "-") {
			sf = SortField{Field: f[1:], Desc: true}
		}
		if !fieldName.MatchString(sf.Field) {
			return nil, fmt.Errorf("%w: %w: %q", ErrInvalidQuery, ErrInvalidField, sf.Field)
		}
		fields = append(fields, sf)
	}
	return fields, nil
}

// positiveInt falls back to def for malformed or non-positive input.
func positiveInt(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return n
}
