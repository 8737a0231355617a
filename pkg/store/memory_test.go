package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/record"
)

func TestMemory_Routes(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.PutRoute(ctx, &catalog.RouteDefinition{ID: "a", Path: "/a"}))
	require.NoError(t, m.PutRoute(ctx, &catalog.RouteDefinition{ID: "b", Path: "/b"}))
	require.NoError(t, m.PutRoute(ctx, &catalog.RouteDefinition{ID: "a", Path: "/a2"}))

	routes, err := m.ListRoutes(ctx)
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, "/a2", routes[0].Path, "replacement keeps catalog position")
	assert.Equal(t, "b", routes[1].ID)

	r, err := m.GetRoute(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "/b", r.Path)

	_, err = m.GetRoute(ctx, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.DeleteRoute(ctx, "a"))
	assert.ErrorIs(t, m.DeleteRoute(ctx, "a"), ErrNotFound)
	routes, _ = m.ListRoutes(ctx)
	assert.Len(t, routes, 1)
}

func TestMemory_Records(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.GetRecords(ctx, "users")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.PutRecords(ctx, "users", nil))
	recs, err := m.GetRecords(ctx, "users")
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)

	in := []*record.Record{record.FromMap(map[string]any{"id": "1", "name": "Ann"})}
	require.NoError(t, m.PutRecords(ctx, "users", in))
	in[0].Set("name", "mutated")

	recs, err = m.GetRecords(ctx, "users")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Ann", recs[0].Value("name"), "writes are copied")

	recs[0].Set("name", "changed")
	again, _ := m.GetRecords(ctx, "users")
	assert.Equal(t, "Ann", again[0].Value("name"), "reads are copied")
}

func TestMemory_ReadOnly(t *testing.T) {
	m := NewMemory()
	m.SetReadOnly(true)
	err := m.PutRecords(context.Background(), "users", nil)
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	c := &catalog.Catalog{
		Routes:    []*catalog.RouteDefinition{{ID: "r1"}},
		Resources: []*catalog.ResourceDefinition{{Name: "users"}, {Name: "posts"}},
		Records: map[string][]*record.Record{
			"users": {record.FromMap(map[string]any{"id": "u1"})},
		},
	}
	require.NoError(t, Load(ctx, m, c))

	defs, _ := m.ListResources(ctx)
	assert.Equal(t, []string{"users", "posts"}, catalog.ResourceNames(defs))

	recs, err := m.GetRecords(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, "u1", recs[0].ID())

	snap := m.Snapshot()
	assert.Len(t, snap.Routes, 1)
	assert.Len(t, snap.Records["users"], 1)
}
