package engine

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/config"
	"github.com/getmockd/mockapi/pkg/generator"
	"github.com/getmockd/mockapi/pkg/record"
	"github.com/getmockd/mockapi/pkg/store"
)

func testCatalog() *catalog.Catalog {
	c := &catalog.Catalog{
		Routes: []*catalog.RouteDefinition{
			{
				ID: "order", Method: "GET", Path: "/orders/:id",
				Conditional: &catalog.ConditionalResponse{
					Condition: catalog.Condition{
						Type: catalog.ConditionDependentAPI, DependentAPIID: "account",
						DependentAPIPath: "status", Operator: catalog.OpEquals, Value: "active",
					},
					ResponseIfTrue:    map[string]any{"shipped": true},
					ResponseIfFalse:   map[string]any{"shipped": false},
					StatusCodeIfFalse: http.StatusPaymentRequired,
				},
			},
			{ID: "account", Method: "GET", Path: "/accounts/:id", ResponseBody: map[string]any{"status": "active"}},
		},
		Resources: []*catalog.ResourceDefinition{
			{Name: "users", Fields: []catalog.FieldSpec{
				{Name: "name", Type: catalog.FieldString, Generator: "fullName"},
			}},
			{Name: "posts", Fields: []catalog.FieldSpec{
				{Name: "title", Type: catalog.FieldString},
				{Name: "userId", Type: catalog.FieldRelation, RelationTo: "users"},
			}},
		},
	}
	c.Normalize()
	return c
}

func newTestServer(t *testing.T, c *catalog.Catalog, opts ...ServerOption) *Server {
	t.Helper()
	opts = append([]ServerOption{WithGenerator(generator.New(generator.WithSeed(7)))}, opts...)
	s := NewServer(config.DefaultServerConfiguration(), opts...)
	require.NoError(t, s.LoadCatalog(context.Background(), c))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func TestServer_DispatchUnderPrefix(t *testing.T) {
	s := newTestServer(t, testCatalog())
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/v1/accounts/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"active"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/v1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "availableResources")

	rec = do(t, h, http.MethodGet, "/accounts/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "routes are only served under the prefix")
}

func TestServer_DependentCallsReenterDispatcher(t *testing.T) {
	s := newTestServer(t, testCatalog())

	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/orders/9", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"shipped":true}`, rec.Body.String())
	assert.Equal(t, float64(1), s.Metrics().DependentCalls.Value("ok"))
}

func TestServer_ResourceCRUD(t *testing.T) {
	s := newTestServer(t, testCatalog())
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/users", `{"name":"Ada"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code, "no collection yet")

	rec = do(t, h, http.MethodPost, "/__mockapi/resources/users/generate?count=0", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/users", `{"name":"Ada"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(t, h, http.MethodGet, "/api/v1/users/"+created["id"].(string), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Ada"`)
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, testCatalog())

	rec := do(t, s.Handler(), http.MethodGet, "/__mockapi/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 2, resp.Routes)
	assert.Equal(t, 2, resp.Resources)

	rec = do(t, s.Handler(), http.MethodPost, "/__mockapi/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t, testCatalog())
	h := s.Handler()

	do(t, h, http.MethodGet, "/api/v1/accounts/1", "")
	do(t, h, http.MethodGet, "/api/v1/nothing/here", "")

	rec := do(t, h, http.MethodGet, "/__mockapi/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `mockapi_requests_total{kind="route",method="GET",status="200"} 1`)
	assert.Contains(t, body, `mockapi_requests_total{kind="not_found",method="GET",status="404"} 1`)
	assert.Contains(t, body, "# TYPE mockapi_request_duration_seconds histogram")
	assert.Contains(t, body, "mockapi_uptime_seconds")
}

func TestServer_Generate(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCount  int
	}{
		{name: "default count", target: "/__mockapi/resources/users/generate", wantStatus: http.StatusCreated, wantCount: DefaultGenerateCount},
		{name: "explicit count", target: "/__mockapi/resources/users/generate?count=3", wantStatus: http.StatusCreated, wantCount: 3},
		{name: "zero", target: "/__mockapi/resources/users/generate?count=0", wantStatus: http.StatusCreated, wantCount: 0},
		{name: "bad count", target: "/__mockapi/resources/users/generate?count=lots", wantStatus: http.StatusBadRequest},
		{name: "too many", target: "/__mockapi/resources/users/generate?count=10001", wantStatus: http.StatusBadRequest},
		{name: "unknown resource", target: "/__mockapi/resources/ghosts/generate", wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, testCatalog())
			rec := do(t, s.Handler(), http.MethodPost, tt.target, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusCreated {
				return
			}
			var resp GenerateResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "users", resp.Resource)
			assert.Equal(t, tt.wantCount, resp.Count)

			recs, err := s.Store().GetRecords(context.Background(), "users")
			require.NoError(t, err)
			assert.Len(t, recs, tt.wantCount)
		})
	}
}

func TestServer_GenerateReplacesCollection(t *testing.T) {
	s := newTestServer(t, testCatalog())
	h := s.Handler()

	require.NoError(t, s.Store().PutRecords(context.Background(), "users",
		[]*record.Record{record.FromMap(map[string]any{"id": "1", "name": "Ada"})}))
	rec := do(t, h, http.MethodPost, "/__mockapi/resources/users/generate?count=2", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	recs, err := s.Store().GetRecords(context.Background(), "users")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.NotEqual(t, "Ada", r.Value("name"))
	}
}

func TestServer_GenerateReadOnlyStore(t *testing.T) {
	mem := store.NewMemory()
	s := newTestServer(t, testCatalog(), WithStore(mem))
	mem.SetReadOnly(true)

	rec := do(t, s.Handler(), http.MethodPost, "/__mockapi/resources/users/generate?count=1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestServer_LoadCatalogGenerates(t *testing.T) {
	c := testCatalog()
	c.Records = map[string][]*record.Record{
		"users": {record.FromMap(map[string]any{"id": "u1", "name": "Seeded"})},
	}
	c.Generate = map[string]int{"posts": 4, "ghosts": 2}
	s := newTestServer(t, c)
	ctx := context.Background()

	users, err := s.Store().GetRecords(ctx, "users")
	require.NoError(t, err)
	require.Len(t, users, 1, "seeded collection is kept when not generated")

	posts, err := s.Store().GetRecords(ctx, "posts")
	require.NoError(t, err)
	require.Len(t, posts, 4)
	for _, p := range posts {
		assert.Equal(t, "u1", p.Value("userId"), "relations point at stored users")
		assert.NotEmpty(t, p.ID())
		assert.NotNil(t, p.Value("createdAt"))
	}

	_, err = s.Store().GetRecords(ctx, "ghosts")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestServer_RootPrefix(t *testing.T) {
	cfg := config.DefaultServerConfiguration()
	cfg.Server.Prefix = "/"
	s := NewServer(cfg)
	require.NoError(t, s.LoadCatalog(context.Background(), testCatalog()))

	rec := do(t, s.Handler(), http.MethodGet, "/accounts/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s.Handler(), http.MethodGet, "/__mockapi/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_StartStop(t *testing.T) {
	cfg := config.DefaultServerConfiguration()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	s := NewServer(cfg)
	require.NoError(t, s.LoadCatalog(context.Background(), testCatalog()))

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()), "second start fails")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + s.Addr() + "/api/v1/accounts/1")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"active"}`, string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	_, err = client.Get("http://" + s.Addr() + "/api/v1/accounts/1")
	assert.Error(t, err)
}

func TestServer_StopWithoutStart(t *testing.T) {
	s := NewServer(nil)
	assert.NoError(t, s.Stop(context.Background()))
}

func TestRecoverPanics(t *testing.T) {
	h := recoverPanics(discardLogger(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}
