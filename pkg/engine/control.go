package engine

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/httputil"
	"github.com/getmockd/mockapi/pkg/record"
	"github.com/getmockd/mockapi/pkg/store"
)

// ControlPrefix is reserved for the engine's own endpoints.
const ControlPrefix = "/__mockapi"

// Limits for the generate endpoint.
const (
	DefaultGenerateCount = 10
	MaxGenerateCount     = 10000
)

// HealthResponse is the body of GET /__mockapi/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    int64  `json:"uptime"`
	Routes    int    `json:"routes"`
	Resources int    `json:"resources"`
}

// GenerateResponse is the body of a successful generate call.
type GenerateResponse struct {
	Resource string `json:"resource"`
	Count    int    `json:"count"`
}

func (s *Server) registerControlRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET "+ControlPrefix+"/health", s.handleHealth)
	mux.Handle("GET "+ControlPrefix+"/metrics", s.metrics.Registry.Handler())
	mux.HandleFunc("POST "+ControlPrefix+"/resources/{name}/generate", s.handleGenerate)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    int64(time.Since(s.startTime).Seconds()),
	}
	routes, err := s.store.ListRoutes(r.Context())
	if err != nil {
		s.log.Warn("health check could not list routes", "error", err)
		resp.Status = "degraded"
	}
	resources, err := s.store.ListResources(r.Context())
	if err != nil {
		s.log.Warn("health check could not list resources", "error", err)
		resp.Status = "degraded"
	}
	resp.Routes = len(routes)
	resp.Resources = len(resources)

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, resp)
}

// handleGenerate replaces a resource collection with count generated records.
// Relation fields draw from the collections currently stored.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("name")

	count := DefaultGenerateCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > MaxGenerateCount {
			httputil.WriteError(w, http.StatusBadRequest,
				"count must be an integer between 0 and "+strconv.Itoa(MaxGenerateCount))
			return
		}
		count = n
	}

	defs, err := s.store.ListResources(ctx)
	if err != nil {
		s.log.Error("failed to list resources", "error", err)
		httputil.WriteInternalError(w)
		return
	}
	def := catalog.FindResource(defs, name)
	if def == nil {
		httputil.WriteNotFound(w, "Resource not found: "+name)
		return
	}

	related, err := s.collections(ctx, defs)
	if err != nil {
		s.log.Error("failed to read collections", "error", err)
		httputil.WriteInternalError(w)
		return
	}

	recs := s.generator.Records(def, count, related)
	if err := s.store.PutRecords(ctx, name, recs); err != nil {
		if errors.Is(err, store.ErrReadOnly) {
			httputil.WriteError(w, http.StatusConflict, "Store is read-only")
			return
		}
		s.log.Error("failed to store generated records", "resource", name, "error", err)
		httputil.WriteInternalError(w)
		return
	}

	s.log.Info("generated records", "resource", name, "count", len(recs))
	httputil.WriteCreated(w, GenerateResponse{Resource: name, Count: len(recs)})
}

// collections reads every stored collection named in defs. Resources with no
// data yet are left out.
func (s *Server) collections(ctx context.Context, defs []*catalog.ResourceDefinition) (map[string][]*record.Record, error) {
	out := make(map[string][]*record.Record, len(defs))
	for _, d := range defs {
		recs, err := s.store.GetRecords(ctx, d.Name)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[d.Name] = recs
	}
	return out, nil
}
