package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/record"
)

// recordToD keeps field order, which a map would lose.
func recordToD(rec *record.Record) bson.D {
	d := make(bson.D, 0, rec.Len())
	rec.Range(func(k string, v any) bool {
		d = append(d, bson.E{Key: k, Value: v})
		return true
	})
	return d
}

func recordFromD(d bson.D) *record.Record {
	rec := record.New()
	for _, e := range d {
		rec.Set(e.Key, plain(e.Value))
	}
	return rec
}

// plain converts decoded BSON values into the JSON shapes records hold.
func plain(v any) any {
	switch val := v.(type) {
	case bson.D:
		m := make(map[string]any, len(val))
		for _, e := range val {
			m[e.Key] = plain(e.Value)
		}
		return m
	case bson.M:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = plain(e)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = plain(e)
		}
		return m
	case bson.A:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = plain(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = plain(e)
		}
		return out
	case bson.ObjectID:
		return val.Hex()
	case bson.DateTime:
		return val.Time().UTC().Format(time.RFC3339Nano)
	case bson.Decimal128:
		return val.String()
	default:
		return record.Normalize(v)
	}
}

func plainRoute(r *catalog.RouteDefinition) {
	r.ResponseBody = plain(r.ResponseBody)
	r.RequestBodySchema = plain(r.RequestBodySchema)
	if c := r.Conditional; c != nil {
		c.ResponseIfTrue = plain(c.ResponseIfTrue)
		c.ResponseIfFalse = plain(c.ResponseIfFalse)
		c.Condition.Value = plain(c.Condition.Value)
	}
	r.Normalize()
}
