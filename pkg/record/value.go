package record

import (
	"cmp"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Normalize folds v into the JSON value shapes a Record holds.
// Integers and float32 become float64, timestamps become RFC 3339 strings,
// and nested containers are normalized recursively.
func Normalize(v any) any {
	switch val := v.(type) {
	case nil, bool, string, float64, *Record, []*Record:
		return v
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = Normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = Normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[Render(Normalize(k))] = Normalize(e)
		}
		return out
	default:
		return v
	}
}

// ToNumber converts v the way a loosely typed language would coerce it to a
// number. The second result is false when the conversion yields NaN.
// nil converts to 0, booleans to 0 or 1, and blank strings to 0.
func ToNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, true
	case float64:
		return val, !math.IsNaN(val)
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		n := Normalize(v)
		if _, isFloat := n.(float64); isFloat {
			return ToNumber(n)
		}
		return 0, false
	}
}

// Render returns the string form of v: strings as-is, numbers without a
// trailing ".0", nil as "null", arrays as comma-joined elements and objects
// as JSON.
func Render(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			if e != nil {
				parts[i] = Render(e)
			}
		}
		return strings.Join(parts, ",")
	default:
		n := Normalize(v)
		switch n.(type) {
		case float64, string, bool, []any:
			return Render(n)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// LooseEqual compares a and b with type coercion: a number equals a string
// holding the same number, and booleans compare as 0 or 1. Containers compare
// structurally. nil only equals nil.
func LooseEqual(a, b any) bool {
	a, b = Normalize(a), Normalize(b)

	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch va := a.(type) {
	case string:
		switch vb := b.(type) {
		case string:
			return va == vb
		case float64:
			n, ok := ToNumber(va)
			return ok && n == vb
		case bool:
			return LooseEqual(va, boolNumber(vb))
		}
	case float64:
		switch vb := b.(type) {
		case float64:
			return va == vb
		case string:
			n, ok := ToNumber(vb)
			return ok && n == va
		case bool:
			return va == boolNumber(vb)
		}
	case bool:
		if vb, ok := b.(bool); ok {
			return va == vb
		}
		return LooseEqual(boolNumber(va), b)
	}

	return reflect.DeepEqual(a, b)
}

// Compare orders a and b for sorting. Numbers compare numerically, strings
// lexically, and mixed kinds by their rendered strings. Callers handle nil.
func Compare(a, b any) int {
	a, b = Normalize(a), Normalize(b)

	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			return cmp.Compare(fa, fb)
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return strings.Compare(sa, sb)
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			return cmp.Compare(boolNumber(ba), boolNumber(bb))
		}
	}
	return strings.Compare(Render(a), Render(b))
}

func boolNumber(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
