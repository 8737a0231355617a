package query

import (
	"context"
	"slices"

	"github.com/getmockd/mockapi/pkg/record"
)

// Result is the list response envelope.
type Result struct {
	Data       []*record.Record `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

// Run executes the list pipeline over the records of resource. records is
// not modified; the returned page holds the same record pointers.
// loader is only consulted when p asks for embeds or expansions.
func Run(ctx context.Context, loader Loader, resource string, records []*record.Record, p *Params) (*Result, error) {
	if p == nil {
		p = &Params{Page: DefaultPage, Limit: DefaultLimit}
	}

	matched := ApplyFilters(records, p.Filters)
	matched = ApplySearch(matched, p.Search)
	if len(p.Sort) > 0 {
		matched = slices.Clone(matched)
		SortRecords(matched, p.Sort)
	}
	page, meta := Paginate(matched, p.Page, p.Limit)

	if (len(p.Embed) > 0 || len(p.Expand) > 0) && len(page) > 0 && loader != nil {
		related, err := loadAll(ctx, loader, append(slices.Clone(p.Embed), p.Expand...))
		if err != nil {
			return nil, err
		}
		Embed(page, resource, related, p.Embed)
		Expand(page, related, p.Expand)
	}

	return &Result{Data: page, Pagination: meta}, nil
}
