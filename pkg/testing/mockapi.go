package testing

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/config"
	"github.com/getmockd/mockapi/pkg/engine"
	"github.com/getmockd/mockapi/pkg/generator"
	"github.com/getmockd/mockapi/pkg/store"
)

// MockServer is a test helper for running mockapi in tests.
// It provides a fluent API for configuring endpoints and assertions.
type MockServer struct {
	t       testing.TB
	cfg     *config.ServerConfiguration
	seed    uint64
	server  *engine.Server
	httpSrv *httptest.Server

	mu      sync.RWMutex
	pending *catalog.Catalog
	started bool
	baseURL string

	journalMu sync.RWMutex
	journal   []RequestLog
}

// Option configures a MockServer.
type Option func(*MockServer)

// WithSeed makes generated records repeatable across runs.
func WithSeed(seed uint64) Option {
	return func(m *MockServer) {
		m.seed = seed
	}
}

// WithPrefix mounts the dispatcher under prefix. The default is "/".
func WithPrefix(prefix string) Option {
	return func(m *MockServer) {
		m.cfg.Server.Prefix = prefix
	}
}

// WithConfig adjusts the server configuration before start, e.g. to
// enable serialized writes.
func WithConfig(fn func(*config.ServerConfiguration)) Option {
	return func(m *MockServer) {
		fn(m.cfg)
	}
}

// New creates a new mock server for testing.
// The mock server will be automatically cleaned up when the test completes.
func New(t testing.TB, opts ...Option) *MockServer {
	t.Helper()
	cfg := config.DefaultServerConfiguration()
	cfg.Server.Port = 0
	cfg.Server.Prefix = "/"
	m := &MockServer{
		t:       t,
		cfg:     cfg,
		pending: &catalog.Catalog{},
	}
	for _, opt := range opts {
		opt(m)
	}
	t.Cleanup(m.Stop)
	return m
}

// Start starts the mock server and returns the base URL, prefix included.
// Routes and resources added before Start are loaded first.
func (m *MockServer) Start() string {
	m.t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return m.baseURL
	}

	var opts []engine.ServerOption
	if m.seed != 0 {
		opts = append(opts, engine.WithGenerator(generator.New(generator.WithSeed(m.seed))))
	}
	m.server = engine.NewServer(m.cfg, opts...)

	m.pending.Normalize()
	if err := catalog.ValidateCatalog(m.pending).Err(); err != nil {
		m.t.Fatalf("invalid mock catalog: %v", err)
	}
	if err := m.server.LoadCatalog(context.Background(), m.pending); err != nil {
		m.t.Fatalf("failed to load mock catalog: %v", err)
	}
	m.pending = &catalog.Catalog{}

	m.httpSrv = httptest.NewServer(m.wrapHandler(m.server.Handler()))
	m.baseURL = m.httpSrv.URL + strings.TrimSuffix(m.cfg.Server.Prefix, "/")
	m.started = true
	return m.baseURL
}

// wrapHandler journals every request outside the control namespace.
func (m *MockServer) wrapHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, engine.ControlPrefix) {
			h.ServeHTTP(w, r)
			return
		}

		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			_ = r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)

		headers := make(map[string]string, len(r.Header))
		for k := range r.Header {
			headers[k] = r.Header.Get(k)
		}
		entry := RequestLog{
			Method:      r.Method,
			Path:        m.relativePath(r.URL.Path),
			Headers:     headers,
			Body:        string(body),
			QueryString: r.URL.RawQuery,
			Status:      rec.status,
			Timestamp:   time.Now(),
		}
		m.journalMu.Lock()
		m.journal = append(m.journal, entry)
		m.journalMu.Unlock()
	})
}

func (m *MockServer) relativePath(path string) string {
	prefix := strings.TrimSuffix(m.cfg.Server.Prefix, "/")
	if prefix == "" || !strings.HasPrefix(path, prefix) {
		return path
	}
	rel := strings.TrimPrefix(path, prefix)
	if rel == "" {
		return "/"
	}
	return rel
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Stop stops the mock server. It is safe to call more than once.
func (m *MockServer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpSrv != nil {
		m.httpSrv.Close()
		m.httpSrv = nil
	}
	if m.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.server.Stop(ctx); err != nil {
			m.t.Logf("mock server stop: %v", err)
		}
		m.server = nil
	}
	m.started = false
}

// URL returns the base URL of the mock server.
// Returns empty string if the server is not started.
func (m *MockServer) URL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.baseURL
}

// Store returns the running server's backend, or nil before Start.
func (m *MockServer) Store() store.Store {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.server == nil {
		return nil
	}
	return m.server.Store()
}

// Catalog adds a whole catalog, e.g. one read with config.LoadCatalogFile.
func (m *MockServer) Catalog(c *catalog.Catalog) {
	m.t.Helper()
	if err := m.add(c); err != nil {
		m.t.Fatalf("failed to add catalog: %v", err)
	}
}

// add queues c before Start and loads it directly afterwards.
func (m *MockServer) add(c *catalog.Catalog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		m.pending.Merge(c)
		return nil
	}
	c.Normalize()
	if err := catalog.ValidateCatalog(c).Err(); err != nil {
		return err
	}
	if m.server == nil {
		return errors.New("mock server is stopped")
	}
	return m.server.LoadCatalog(context.Background(), c)
}

// Reset clears the request journal.
func (m *MockServer) Reset() {
	m.journalMu.Lock()
	m.journal = nil
	m.journalMu.Unlock()
}

// Requests returns a copy of the request journal, oldest first.
func (m *MockServer) Requests() []RequestLog {
	m.journalMu.RLock()
	defer m.journalMu.RUnlock()
	out := make([]RequestLog, len(m.journal))
	copy(out, m.journal)
	return out
}

// RequestsTo returns the journaled requests for method and path.
func (m *MockServer) RequestsTo(method, path string) []RequestLog {
	var out []RequestLog
	for _, r := range m.Requests() {
		if strings.EqualFold(r.Method, method) && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// LastRequest returns the most recent request, or nil.
func (m *MockServer) LastRequest() *RequestLog {
	reqs := m.Requests()
	if len(reqs) == 0 {
		return nil
	}
	return &reqs[len(reqs)-1]
}
