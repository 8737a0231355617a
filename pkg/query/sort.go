package query

import (
	"slices"

	"github.com/getmockd/mockapi/pkg/record"
)

// SortRecords sorts in place by keys, field by field. Missing and null
// values sort last in either direction. Records equal on every key keep
// their relative order.
func SortRecords(records []*record.Record, keys []SortKey) {
	if len(keys) == 0 {
		return
	}
	slices.SortStableFunc(records, func(a, b *record.Record) int {
		for _, k := range keys {
			va, vb := a.Value(k.Field), b.Value(k.Field)
			switch {
			case va == nil && vb == nil:
				continue
			case va == nil:
				return 1
			case vb == nil:
				return -1
			}
			c := record.Compare(va, vb)
			if k.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}
