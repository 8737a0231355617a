package query

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Reserved query parameters. Every other parameter is a filter.
const (
	ParamPage   = "_page"
	ParamLimit  = "_limit"
	ParamSort   = "_sort"
	ParamOrder  = "_order"
	ParamEmbed  = "_embed"
	ParamExpand = "_expand"
	ParamSearch = "_search"
)

// Defaults for pagination.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

var reserved = map[string]bool{
	ParamPage: true, ParamLimit: true, ParamSort: true, ParamOrder: true,
	ParamEmbed: true, ParamExpand: true, ParamSearch: true,
}

// Op is a filter comparison.
type Op string

// Filter operators.
const (
	OpMatch Op = ""
	OpGTE   Op = "gte"
	OpLTE   Op = "lte"
	OpGT    Op = "gt"
	OpLT    Op = "lt"
	OpNE    Op = "ne"
)

var opSuffix = regexp.MustCompile(`^(.+)_(gte|lte|gt|lt|ne)$`)

// Filter is one field condition. All filters must hold.
type Filter struct {
	Field string
	Op    Op
	Value string
}

// SortKey is one sort field.
type SortKey struct {
	Field string
	Desc  bool
}

// Params is a parsed list request.
type Params struct {
	Filters []Filter
	Search  string
	Sort    []SortKey
	Page    int
	Limit   int
	Embed   []string
	Expand  []string
}

// ParseParams reads list parameters from a query string. A repeated filter
// parameter yields one filter per value.
func ParseParams(q url.Values) *Params {
	p := &Params{
		Search: q.Get(ParamSearch),
		Page:   positiveInt(q.Get(ParamPage), DefaultPage),
		Limit:  positiveInt(q.Get(ParamLimit), DefaultLimit),
		Embed:  splitList(q.Get(ParamEmbed)),
		Expand: splitList(q.Get(ParamExpand)),
	}

	fields := splitList(q.Get(ParamSort))
	orders := strings.Split(q.Get(ParamOrder), ",")
	for i, f := range fields {
		key := SortKey{Field: f}
		if i < len(orders) {
			key.Desc = strings.EqualFold(strings.TrimSpace(orders[i]), "desc")
		}
		p.Sort = append(p.Sort, key)
	}

	for key, values := range q {
		if reserved[key] {
			continue
		}
		field, op := key, OpMatch
		if m := opSuffix.FindStringSubmatch(key); m != nil {
			field, op = m[1], Op(m[2])
		}
		for _, v := range values {
			p.Filters = append(p.Filters, Filter{Field: field, Op: op, Value: v})
		}
	}
	return p
}

// Offset is the index of the first item on the page. It saturates at
// math.MaxInt.
func (p *Params) Offset() int {
	if p.Limit > 0 && p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

func positiveInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
