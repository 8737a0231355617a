package testing

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	stdtesting "testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/config"
)

func get(t *stdtesting.T, url string, header ...string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	return do(t, req)
}

func post(t *stdtesting.T, url, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return do(t, req)
}

func do(t *stdtesting.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

func TestStartAndStop(t *stdtesting.T) {
	mock := New(t)
	mock.Route("GET", "/users/:id").
		WithBody(map[string]any{"id": "{id}", "name": "Ada"}).
		Reply()

	url := mock.Start()
	require.True(t, strings.HasPrefix(url, "http://"))
	assert.Equal(t, url, mock.Start(), "second Start returns the same URL")

	status, body := get(t, url+"/users/42")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"id": "42", "name": "Ada"}, body)

	mock.Stop()
	mock.Stop()
	assert.Nil(t, mock.Store())
}

func TestPrefix(t *stdtesting.T) {
	mock := New(t, WithPrefix("/api"), WithConfig(func(c *config.ServerConfiguration) {
		c.Dispatch.SerializeWrites = true
	}))
	mock.Route("GET", "/ping").WithStatus(202).WithJSON(`{"pong":true}`).Reply()

	url := mock.Start()
	assert.True(t, strings.HasSuffix(url, "/api"))

	status, body := get(t, url+"/ping")
	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, true, body["pong"])
	mock.AssertCalled(t, "GET", "/ping")
}

func TestConditionalRoutes(t *stdtesting.T) {
	mock := New(t)
	mock.Route("GET", "/orders/:id").
		WhenHeader("X-Tier", catalog.OpEquals, "gold").
		Then(map[string]any{"discount": 10}, 0).
		Otherwise(map[string]any{"discount": 0}, 0).
		Reply()
	mock.Route("POST", "/accounts/:accountId").WithID("account").
		WhenQuery("active", catalog.OpEquals, "true").
		Then(map[string]any{"active": true}, 200).
		Otherwise(map[string]any{"active": false}, 200).
		Reply()
	mock.Route("POST", "/orders").
		WhenDependent("account", "active", catalog.OpEquals, true).
		Then(map[string]any{"accepted": true}, 201).
		Otherwise(map[string]any{"accepted": false}, 403).
		Reply()
	url := mock.Start()

	_, body := get(t, url+"/orders/1", "X-Tier", "gold")
	assert.Equal(t, float64(10), body["discount"])
	_, body = get(t, url+"/orders/1")
	assert.Equal(t, float64(0), body["discount"])

	status, body := post(t, url+"/orders?active=true", `{"accountId":"a1"}`)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["accepted"])

	status, _ = post(t, url+"/orders", `{"accountId":"a1"}`)
	assert.Equal(t, http.StatusForbidden, status)

	mock.AssertCalledTimes(t, "POST", "/orders", 2)
	mock.LastRequest().AssertJSONField(t, "accountId", "a1")
}

func TestRequestSchema(t *stdtesting.T) {
	mock := New(t)
	mock.Route("POST", "/items").
		WithStatus(201).
		WithRequestSchema(map[string]any{
			"type":     "object",
			"required": []any{"sku"},
		}).
		WithBody(map[string]any{"ok": true}).
		Reply()
	url := mock.Start()

	status, _ := post(t, url+"/items", `{"sku":"A-1"}`)
	assert.Equal(t, http.StatusCreated, status)
	status, _ = post(t, url+"/items", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)

	reqs := mock.RequestsTo("POST", "/items")
	require.Len(t, reqs, 2)
	assert.Equal(t, http.StatusCreated, reqs[0].Status)
	assert.Equal(t, http.StatusBadRequest, reqs[1].Status)
	reqs[0].AssertJSONBody(t, map[string]any{"sku": "A-1"})
	reqs[0].AssertHeader(t, "content-type", "application/json")
}

func TestResources(t *stdtesting.T) {
	mock := New(t, WithSeed(3))
	mock.Resource("users").
		Field("name", catalog.FieldString, "fullName").
		Records(
			map[string]any{"id": "u1", "name": "Ada"},
			map[string]any{"id": "u2", "name": "Grace"},
		).
		Add()
	mock.Resource("posts").
		Field("title", catalog.FieldString, "sentence").
		Relation("userId", "users").
		Generate(6).
		Add()
	mock.Resource("tags").RequiredField("label", catalog.FieldString).Add()
	url := mock.Start()

	mock.AssertRecordCount(t, "users", 2)
	mock.AssertRecordCount(t, "posts", 6)
	mock.AssertRecordCount(t, "tags", 0)

	status, body := get(t, url+"/users?_sort=name&_order=desc&_limit=1")
	assert.Equal(t, http.StatusOK, status)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "Grace", data[0].(map[string]any)["name"])
	mock.LastRequest().AssertQueryParam(t, "_sort", "name")

	status, _ = post(t, url+"/tags", `{"label":"go"}`)
	assert.Equal(t, http.StatusCreated, status)
	mock.AssertRecordCount(t, "tags", 1)

	mock.Resource("notes").Field("text", catalog.FieldString, "").Generate(2).Add()
	mock.AssertRecordCount(t, "notes", 2)
}

func TestRoutesAfterStart(t *stdtesting.T) {
	mock := New(t)
	url := mock.Start()

	status, _ := get(t, url+"/late")
	assert.Equal(t, http.StatusNotFound, status)

	mock.Route("GET", "/late").WithBody(map[string]any{"late": true}).Reply()
	status, body := get(t, url+"/late")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["late"])
}

func TestJournal(t *stdtesting.T) {
	mock := New(t)
	mock.Route("GET", "/a").Reply()
	url := mock.Start()

	assert.Nil(t, mock.LastRequest())
	get(t, url+"/a?x=1")
	get(t, url+"/__mockapi/health")

	reqs := mock.Requests()
	require.Len(t, reqs, 1, "control requests are not journaled")
	assert.Equal(t, "x=1", reqs[0].QueryString)
	mock.AssertNotCalled(t, "GET", "/b")

	mock.Reset()
	assert.Empty(t, mock.Requests())
}

func TestBuilderErrors(t *stdtesting.T) {
	mock := New(t)
	b := mock.Route("GET", "/bad").WithJSON(`{nope`)
	assert.Error(t, b.Err())

	b = mock.Route("GET", "/bad").WithBody(map[string]any{"ch": make(chan int)})
	assert.NoError(t, b.Err(), "maps pass through unchanged")

	b = mock.Route("GET", "/bad").WithBody(struct{ C chan int }{})
	assert.Error(t, b.Err())
}

func TestJSONField(t *stdtesting.T) {
	r := &RequestLog{Body: `{"items":[{"sku":"A-1"}],"user":{"name":"Ada"}}`}
	assert.Equal(t, "A-1", r.JSONField("items.0.sku"))
	assert.Equal(t, "A-1", r.JSONField("$.items[0].sku"))
	assert.Equal(t, "Ada", r.JSONField("$.user.name"))
	assert.Nil(t, r.JSONField("missing"))
	assert.Nil(t, (&RequestLog{Body: "not json"}).JSONField("a"))
}
