package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/record"
	"github.com/getmockd/mockapi/pkg/store"
)

// newTestStore creates a FileStore backed by a temp directory.
func newTestStore(t *testing.T, dir string) *FileStore {
	t.Helper()
	fs := New(store.Config{DataDir: dir}, WithDebounce(10*time.Millisecond))
	require.NoError(t, fs.Open(context.Background()))
	t.Cleanup(func() { _ = fs.Close(context.Background()) })
	return fs
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	fs := newTestStore(t, dir)
	require.NoError(t, fs.PutRoute(ctx, &catalog.RouteDefinition{ID: "r1", Method: "GET", Path: "/ping", StatusCode: 200}))
	require.NoError(t, fs.PutResource(ctx, &catalog.ResourceDefinition{ID: "users", Name: "users"}))
	require.NoError(t, fs.PutRecords(ctx, "users", []*record.Record{
		record.FromMap(map[string]any{"id": "u1", "age": 30}),
	}))
	require.NoError(t, fs.Close(ctx))

	reopened := newTestStore(t, dir)
	routes, err := reopened.ListRoutes(ctx)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "/ping", routes[0].Path)

	recs, err := reopened.GetRecords(ctx, "users")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, float64(30), recs[0].Value("age"))
}

func TestFileStore_DebouncedSave(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs := newTestStore(t, dir)

	require.NoError(t, fs.PutRecords(ctx, "users", []*record.Record{record.FromMap(map[string]any{"id": "1"})}))

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(filepath.Join(dir, dataFileName))
		if err != nil {
			return false
		}
		var stored storeData
		return json.Unmarshal(data, &stored) == nil && len(stored.Records["users"]) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFileStore_ForceSave(t *testing.T) {
	dir := t.TempDir()
	fs := newTestStore(t, dir)
	require.NoError(t, fs.ForceSave())

	data, err := os.ReadFile(filepath.Join(dir, dataFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": 1`)
	assert.Equal(t, dir, fs.DataDir())
}

func TestFileStore_ReadOnly(t *testing.T) {
	fs := New(store.Config{DataDir: t.TempDir(), ReadOnly: true})
	require.NoError(t, fs.Open(context.Background()))
	defer fs.Close(context.Background())

	err := fs.PutRecords(context.Background(), "users", nil)
	assert.ErrorIs(t, err, store.ErrReadOnly)
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, dataFileName), []byte("{nope"), 0o600))

	fs := New(store.Config{DataDir: dir})
	assert.Error(t, fs.Open(context.Background()))
}
