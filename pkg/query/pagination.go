package query

import "context"

// PageRef points at a neighbouring page.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination describes one page of a larger result set. Next and Prev
// depend only on Page, Limit and Total.
type Pagination struct {
	Page  int      `json:"page"`
	Limit int      `json:"limit"`
	Total int64    `json:"total"`
	Next  *PageRef `json:"next,omitempty"`
	Prev  *PageRef `json:"prev,omitempty"`
}

func NewPagination(page, limit int, total int64) Pagination {
	p := Pagination{Page: page, Limit: limit, Total: total}

	startIndex := int64(page-1) * int64(limit)
	endIndex := int64(page) * int64(limit)

	if endIndex < total {
		p.Next = &PageRef{Page: page + 1, Limit: limit}
	}
	if startIndex > 0 {
		p.Prev = &PageRef{Page: page - 1, Limit: limit}
	}
	return p
}

// Finder is a collection the translator can run a Spec against.
type Finder[T any] interface {
	Count(ctx context.Context, filter Filter) (int64, error)
	Find(ctx context.Context, spec *Spec, populate ...Populate) ([]T, error)
}

// Result is the list envelope written back to clients.
type Result[T any] struct {
	Success    bool       `json:"success"`
	Count      int        `json:"count"`
	Pagination Pagination `json:"pagination"`
	Data       []T        `json:"data"`
}

// Execute counts the documents matching spec, then fetches the requested
// page. The two reads are independent and not run in a transaction.
func Execute[T any](ctx context.Context, finder Finder[T], spec *Spec, populate ...Populate) (*Result[T], error) {
	total, err := finder.Count(ctx, spec.Filter)
	if err != nil {
		return nil, err
	}

	data, err := finder.Find(ctx, spec, populate...)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []T{}
	}

	return &Result[T]{
		Success:    true,
		Count:      len(data),
		Pagination: NewPagination(spec.Page, spec.Limit, total),
		Data:       data,
	}, nil
}
