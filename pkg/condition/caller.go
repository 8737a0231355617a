package condition

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DepthHeader carries the dependent-call nesting depth so that routes whose
// conditions reference each other cannot recurse forever.
const DepthHeader = "X-Mockapi-Depth"

// maxResponseBytes bounds how much of a dependent response is read.
const maxResponseBytes = 10 << 20

// CallRequest is an outbound call to a dispatcher-relative path.
type CallRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Depth  int
}

// CallResponse is the status and raw body of a completed call.
type CallResponse struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *CallResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Caller issues calls against the dispatcher, wherever it is mounted.
type Caller interface {
	Call(ctx context.Context, req *CallRequest) (*CallResponse, error)
}

// CallerFunc adapts a function to Caller.
type CallerFunc func(ctx context.Context, req *CallRequest) (*CallResponse, error)

// Call implements Caller.
func (f CallerFunc) Call(ctx context.Context, req *CallRequest) (*CallResponse, error) {
	return f(ctx, req)
}

// HTTPCaller calls over the network. BaseURL includes the dispatcher prefix,
// e.g. "http://localhost:4280/api/v1".
type HTTPCaller struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPCaller creates an HTTPCaller with its own client.
func NewHTTPCaller(baseURL string, timeout time.Duration) *HTTPCaller {
	return &HTTPCaller{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// Call implements Caller.
func (c *HTTPCaller) Call(ctx context.Context, req *CallRequest) (*CallResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.BaseURL+req.target(), nil)
	if err != nil {
		return nil, err
	}
	req.applyHeaders(httpReq.Header)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &CallResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

// HandlerCaller calls an in-process handler without touching the network.
// Prefix is prepended to every path, for handlers that expect it.
type HandlerCaller struct {
	Handler http.Handler
	Prefix  string
}

// Call implements Caller.
func (c *HandlerCaller) Call(ctx context.Context, req *CallRequest) (*CallResponse, error) {
	target := c.Prefix + req.target()
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, nil)
	if err != nil {
		return nil, err
	}
	httpReq.RequestURI = target
	httpReq.RemoteAddr = "127.0.0.1:0"
	req.applyHeaders(httpReq.Header)

	rec := &bufferedResponse{header: make(http.Header)}
	c.Handler.ServeHTTP(rec, httpReq)
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	return &CallResponse{StatusCode: rec.status, Body: rec.body.Bytes()}, nil
}

func (r *CallRequest) target() string {
	path := r.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(r.Query) > 0 {
		path += "?" + r.Query.Encode()
	}
	return path
}

// skippedHeaders describe the original connection or body and are not forwarded.
var skippedHeaders = map[string]bool{
	"Host":              true,
	"Content-Length":    true,
	"Content-Type":      true,
	"Connection":        true,
	"Accept-Encoding":   true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
	"Keep-Alive":        true,
}

func (r *CallRequest) applyHeaders(dst http.Header) {
	for k, vs := range r.Header {
		if skippedHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
	dst.Set(DepthHeader, strconv.Itoa(r.Depth))
}

// bufferedResponse is a minimal in-memory http.ResponseWriter.
type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	if b.body.Len()+len(p) > maxResponseBytes {
		return 0, fmt.Errorf("response exceeds %d bytes", maxResponseBytes)
	}
	return b.body.Write(p)
}

// ParseDepth reads DepthHeader; missing or malformed values are 0.
func ParseDepth(h http.Header) int {
	n, err := strconv.Atoi(h.Get(DepthHeader))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
