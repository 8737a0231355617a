package condition

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = io.WriteString(w, `{"path":"`+r.URL.Path+`","q":"`+r.URL.Query().Get("q")+`","depth":"`+r.Header.Get(DepthHeader)+`","auth":"`+r.Header.Get("Authorization")+`"}`)
	})
}

func TestHandlerCaller(t *testing.T) {
	c := &HandlerCaller{Handler: echoHandler(), Prefix: "/api/v1"}
	resp, err := c.Call(context.Background(), &CallRequest{
		Method: http.MethodGet,
		Path:   "/users",
		Query:  url.Values{"q": {"x"}},
		Header: http.Header{"Authorization": {"k"}, "Content-Length": {"12"}},
		Depth:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.True(t, resp.OK())
	assert.JSONEq(t, `{"path":"/api/v1/users","q":"x","depth":"2","auth":"k"}`, string(resp.Body))
}

func TestHandlerCaller_DefaultStatus(t *testing.T) {
	c := &HandlerCaller{Handler: http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})}
	resp, err := c.Call(context.Background(), &CallRequest{Method: http.MethodGet, Path: "x"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Body)
}

func TestHTTPCaller(t *testing.T) {
	srv := httptest.NewServer(echoHandler())
	defer srv.Close()

	c := NewHTTPCaller(srv.URL+"/api/", time.Second)
	resp, err := c.Call(context.Background(), &CallRequest{
		Method: http.MethodGet,
		Path:   "/orders/1",
		Query:  url.Values{"q": {"y"}},
		Depth:  1,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.JSONEq(t, `{"path":"/api/orders/1","q":"y","depth":"1","auth":""}`, string(resp.Body))
}

func TestHTTPCaller_Unreachable(t *testing.T) {
	srv := httptest.NewServer(echoHandler())
	srv.Close()

	c := NewHTTPCaller(srv.URL, 200*time.Millisecond)
	_, err := c.Call(context.Background(), &CallRequest{Method: http.MethodGet, Path: "/"})
	assert.Error(t, err)
}

func TestParseDepth(t *testing.T) {
	assert.Equal(t, 0, ParseDepth(http.Header{}))
	assert.Equal(t, 0, ParseDepth(http.Header{DepthHeader: {"x"}}))
	assert.Equal(t, 0, ParseDepth(http.Header{DepthHeader: {"-3"}}))
	assert.Equal(t, 3, ParseDepth(http.Header{DepthHeader: {"3"}}))
}
