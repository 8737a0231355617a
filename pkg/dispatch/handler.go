package dispatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/getmockd/mockapi/internal/matching"
	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/condition"
	"github.com/getmockd/mockapi/pkg/httputil"
	"github.com/getmockd/mockapi/pkg/logging"
	"github.com/getmockd/mockapi/pkg/store"
	"github.com/getmockd/mockapi/pkg/webhook"
)

// DefaultMaxBodySize bounds request bodies read by the dispatcher.
const DefaultMaxBodySize int64 = 10 << 20

// Kind classifies how a request was served.
type Kind string

// Request kinds reported to an Observer.
const (
	KindRoute    Kind = "route"
	KindResource Kind = "resource"
	KindNotFound Kind = "not_found"
	KindError    Kind = "error"
)

// Observer is told about every served request.
type Observer func(method string, kind Kind, status int, elapsed time.Duration)

// Notifier fires webhooks without blocking. *webhook.Notifier implements it.
type Notifier interface {
	Notify(url string, p webhook.Payload)
}

// Handler is the dispatcher. It is safe for concurrent use.
type Handler struct {
	routes    store.RouteCatalog
	resources store.ResourceCatalog
	records   store.RecordStore

	matcher   *matching.Matcher
	evaluator *condition.Evaluator
	notifier  Notifier
	locks     *keyedMutex
	observe   Observer
	log       *slog.Logger
	now       func() time.Time

	maxBodySize int64
}

// Option configures a Handler.
type Option func(*Handler)

// WithMatcher shares a template cache with other components.
func WithMatcher(m *matching.Matcher) Option {
	return func(h *Handler) {
		if m != nil {
			h.matcher = m
		}
	}
}

// WithEvaluator sets the condition evaluator. Without it, conditions are
// evaluated by an evaluator that has no caller, so dependentApi conditions
// are always false.
func WithEvaluator(e *condition.Evaluator) Option {
	return func(h *Handler) {
		h.evaluator = e
	}
}

// WithNotifier sets the webhook notifier. Without one, webhooks are skipped.
func WithNotifier(n Notifier) Option {
	return func(h *Handler) {
		h.notifier = n
	}
}

// WithSerializedWrites serializes read-modify-write cycles per resource.
func WithSerializedWrites(enabled bool) Option {
	return func(h *Handler) {
		if enabled {
			h.locks = newKeyedMutex()
		} else {
			h.locks = nil
		}
	}
}

// WithObserver registers a per-request observer, typically for metrics.
func WithObserver(fn Observer) Option {
	return func(h *Handler) {
		h.observe = fn
	}
}

// WithMaxBodySize overrides DefaultMaxBodySize.
func WithMaxBodySize(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodySize = n
		}
	}
}

// WithClock overrides the time source for createdAt.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(h *Handler) {
		h.log = logging.OrNop(log)
	}
}

// New creates a Handler over the given catalogs and record store.
func New(routes store.RouteCatalog, resources store.ResourceCatalog, records store.RecordStore, opts ...Option) *Handler {
	h := &Handler{
		routes:      routes,
		resources:   resources,
		records:     records,
		matcher:     matching.NewMatcher(),
		log:         logging.Nop(),
		now:         time.Now,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.evaluator == nil {
		h.evaluator = condition.New(routes, condition.WithMatcher(h.matcher), condition.WithLogger(h.log))
	}
	return h
}

// ServeHTTP implements http.Handler. r.URL.Path is relative to the mount point.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	kind, status := h.serve(w, r)
	if h.observe != nil {
		h.observe(r.Method, kind, status, time.Since(start))
	}
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) (kind Kind, status int) {
	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error("panic while dispatching",
				"panic", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()))
			httputil.WriteInternalError(w)
			kind, status = KindError, http.StatusInternalServerError
		}
	}()

	ctx := r.Context()
	path, escaped := requestPath(r)

	routes, err := h.routes.ListRoutes(ctx)
	if err != nil {
		return KindError, h.internalError(w, r, fmt.Errorf("list routes: %w", err))
	}
	if route, params := h.matcher.FindRoute(routes, r.Method, escaped); route != nil {
		return KindRoute, h.serveRoute(w, r, route, path, params)
	}

	resources, err := h.resources.ListResources(ctx)
	if err != nil {
		return KindError, h.internalError(w, r, fmt.Errorf("list resources: %w", err))
	}
	segments := matching.Segments(escaped)
	if len(segments) > 0 {
		if def := catalog.FindResource(resources, segments[0]); def != nil {
			status := h.serveResource(w, r, def, segments)
			if status == http.StatusInternalServerError {
				return KindError, status
			}
			return KindResource, status
		}
	}

	return KindNotFound, writeDiagnostic(w, r.Method, path, routes, resources)
}

// serveRoute answers a matched custom route.
func (h *Handler) serveRoute(w http.ResponseWriter, r *http.Request, route *catalog.RouteDefinition, path string, params map[string]string) int {
	var body any
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		data, err := h.readBody(w, r)
		if err != nil {
			h.log.Debug("ignoring unreadable request body", "route", route.ID, "error", err)
		}
		body = decodeLoose(data)
	}

	if route.WebhookURL != "" && h.notifier != nil {
		h.notifier.Notify(route.WebhookURL, webhook.Payload{Method: r.Method, Path: path, Body: body})
	}

	respBody, status := route.ResponseBody, route.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	if c := route.Conditional; c != nil {
		rc := &condition.RequestContext{
			Method: r.Method,
			Path:   path,
			Header: r.Header,
			Query:  r.URL.Query(),
			Body:   body,
			Params: params,
			Depth:  condition.ParseDepth(r.Header),
		}
		outcome := h.evaluator.Evaluate(r.Context(), &c.Condition, rc)
		respBody, status = c.Branch(outcome, status)
		h.log.Debug("conditional route evaluated", "route", route.ID, "outcome", outcome, "status", status)
	}

	httputil.WriteJSON(w, status, respBody)
	return status
}

// readBody reads at most maxBodySize bytes of the request body.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	return io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
}

// decodeLoose parses data as JSON. Empty or malformed input yields nil.
func decodeLoose(data []byte) any {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	return v
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) int {
	var se statusError
	if errors.As(err, &se) {
		if se.StatusCode() >= http.StatusInternalServerError {
			h.log.Error("dispatch failed", "method", r.Method, "path", r.URL.Path, "error", err)
		} else {
			h.log.Debug("dispatch error", "method", r.Method, "path", r.URL.Path, "error", err, "hint", se.Hint())
		}
		httputil.WriteError(w, se.StatusCode(), se.Message())
		return se.StatusCode()
	}
	return h.internalError(w, r, err)
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) int {
	h.log.Error("dispatch failed", "method", r.Method, "path", r.URL.Path, "error", err)
	httputil.WriteInternalError(w)
	return http.StatusInternalServerError
}

// requestPath returns the decoded path and its escaped form. Matching runs
// on the escaped form so that each segment is decoded exactly once.
func requestPath(r *http.Request) (path, escaped string) {
	path, escaped = r.URL.Path, r.URL.EscapedPath()
	if path == "" {
		path = "/"
	}
	if escaped == "" {
		escaped = "/"
	}
	return path, escaped
}
