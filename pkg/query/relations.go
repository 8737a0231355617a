package query

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/getmockd/mockapi/pkg/record"
	"github.com/getmockd/mockapi/pkg/store"
)

// Loader reads related collections for embed and expand.
type Loader interface {
	GetRecords(ctx context.Context, name string) ([]*record.Record, error)
}

// Singular drops the final character of a resource name.
func Singular(name string) string {
	if name == "" {
		return ""
	}
	r := []rune(name)
	return string(r[:len(r)-1])
}

// ForeignKey is the field that refers to a record of the named resource.
func ForeignKey(resource string) string {
	return Singular(resource) + "Id"
}

// loadAll fetches each named collection once, concurrently. A collection that
// was never stored loads as empty.
func loadAll(ctx context.Context, loader Loader, names []string) (map[string][]*record.Record, error) {
	out := make(map[string][]*record.Record, len(names))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		mu.Lock()
		_, seen := out[name]
		out[name] = nil
		mu.Unlock()
		if seen {
			continue
		}
		g.Go(func() error {
			recs, err := loader.GetRecords(ctx, name)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			mu.Lock()
			out[name] = recs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Embed attaches to every item, under each embedded resource's name, the
// records of that resource whose ForeignKey(parent) equals the item id.
// Keys compare in their rendered string form, so 1 matches "1".
func Embed(items []*record.Record, parent string, related map[string][]*record.Record, names []string) {
	fk := ForeignKey(parent)
	for _, name := range names {
		children := related[name]
		for _, item := range items {
			id := item.ID()
			matched := make([]*record.Record, 0)
			for _, child := range children {
				if v := child.Value(fk); v != nil && record.Render(v) == id {
					matched = append(matched, child)
				}
			}
			item.Set(name, matched)
		}
	}
}

// Expand attaches to every item, under Singular(name), the record of that
// resource whose id equals item[ForeignKey(name)], compared as strings.
// Items without a match get no key.
func Expand(items []*record.Record, related map[string][]*record.Record, names []string) {
	for _, name := range names {
		byID := make(map[string]*record.Record, len(related[name]))
		for _, rec := range related[name] {
			if id := rec.ID(); id != "" {
				if _, dup := byID[id]; !dup {
					byID[id] = rec
				}
			}
		}
		fk, key := ForeignKey(name), Singular(name)
		for _, item := range items {
			v := item.Value(fk)
			if v == nil {
				continue
			}
			if rec, ok := byID[record.Render(v)]; ok {
				item.Set(key, rec)
			}
		}
	}
}
