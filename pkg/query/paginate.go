package query

import "github.com/getmockd/mockapi/pkg/record"

// Pagination describes the page returned from a list request.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Paginate returns page (1-based) of size limit, and its description.
// A page past the end is empty.
func Paginate(records []*record.Record, page, limit int) ([]*record.Record, Pagination) {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	total := len(records)
	meta := Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: total / limit,
	}
	if total%limit != 0 {
		meta.TotalPages++
	}

	start := total
	if page-1 <= total/limit {
		start = min((page-1)*limit, total)
	}
	end := start + min(limit, total-start)
	out := make([]*record.Record, end-start)
	copy(out, records[start:end])
	return out, meta
}
