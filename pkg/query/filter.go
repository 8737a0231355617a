package query

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/getmockd/mockapi/pkg/record"
)

// ApplyFilters keeps the records every filter accepts, preserving order.
func ApplyFilters(records []*record.Record, filters []Filter) []*record.Record {
	if len(filters) == 0 {
		return records
	}
	fold := cases.Fold()
	out := make([]*record.Record, 0, len(records))
	for _, rec := range records {
		keep := true
		for _, f := range filters {
			if !matchFilter(fold, rec, f) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, rec)
		}
	}
	return out
}

func matchFilter(fold cases.Caser, rec *record.Record, f Filter) bool {
	v, ok := rec.Get(f.Field)
	if f.Op == OpMatch {
		return ok && v != nil && matchValue(fold, v, f.Value)
	}
	return compareFilter(v, ok, f.Op, f.Value)
}

// matchValue is the equality/contains rule for a plain field=value filter.
func matchValue(fold cases.Caser, v any, want string) bool {
	switch val := v.(type) {
	case string:
		return containsFold(fold, val, want)
	case float64:
		n, ok := record.ToNumber(want)
		return ok && strings.TrimSpace(want) != "" && n == val
	case bool:
		return strconv.FormatBool(val) == strings.ToLower(want)
	case []any:
		for _, e := range val {
			if s, ok := e.(string); ok {
				if containsFold(fold, s, want) {
					return true
				}
				continue
			}
			if record.LooseEqual(e, want) {
				return true
			}
		}
		return false
	default:
		return record.LooseEqual(v, want)
	}
}

// compareFilter applies a suffixed comparison. The filter value is compared
// numerically when it parses as a number and as a raw string otherwise.
func compareFilter(v any, present bool, op Op, raw string) bool {
	if !present {
		return op == OpNE
	}
	if op == OpNE {
		return !record.LooseEqual(v, raw)
	}

	var c int
	if want, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		got, ok := record.ToNumber(v)
		if !ok {
			return false
		}
		c = cmpFloat(got, want)
	} else {
		s, ok := v.(string)
		if !ok {
			return false
		}
		c = strings.Compare(s, raw)
	}

	switch op {
	case OpGTE:
		return c >= 0
	case OpLTE:
		return c <= 0
	case OpGT:
		return c > 0
	case OpLT:
		return c < 0
	default:
		return false
	}
}

// ApplySearch keeps records with at least one string or number field
// containing term, ignoring case. An empty term keeps everything.
func ApplySearch(records []*record.Record, term string) []*record.Record {
	if term == "" {
		return records
	}
	fold := cases.Fold()
	needle := fold.String(term)
	out := make([]*record.Record, 0, len(records))
	for _, rec := range records {
		found := false
		rec.Range(func(_ string, v any) bool {
			switch v.(type) {
			case string, float64:
				found = strings.Contains(fold.String(record.Render(v)), needle)
			}
			return !found
		})
		if found {
			out = append(out, rec)
		}
	}
	return out
}

func containsFold(fold cases.Caser, s, sub string) bool {
	return strings.Contains(fold.String(s), fold.String(sub))
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
