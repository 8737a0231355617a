package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/mockapi/internal/matching"
	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/condition"
	"github.com/getmockd/mockapi/pkg/config"
	"github.com/getmockd/mockapi/pkg/dispatch"
	"github.com/getmockd/mockapi/pkg/generator"
	"github.com/getmockd/mockapi/pkg/logging"
	"github.com/getmockd/mockapi/pkg/metrics"
	"github.com/getmockd/mockapi/pkg/store"
	"github.com/getmockd/mockapi/pkg/webhook"
)

// Server is the mock API server.
type Server struct {
	cfg       *config.ServerConfiguration
	store     store.Store
	metrics   *metrics.Set
	generator *generator.Generator
	notifier  *webhook.Notifier
	log       *slog.Logger

	dispatcher *dispatch.Handler
	handler    http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	running    bool
	startTime  time.Time
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*Server)

// WithStore sets the backend. Without one the server uses store.NewMemory.
func WithStore(s store.Store) ServerOption {
	return func(srv *Server) {
		srv.store = s
	}
}

// WithLogger sets the operational logger for the server.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics shares a metrics set, e.g. with a test.
func WithMetrics(m *metrics.Set) ServerOption {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithGenerator sets the record generator, e.g. a seeded one.
func WithGenerator(g *generator.Generator) ServerOption {
	return func(s *Server) {
		if g != nil {
			s.generator = g
		}
	}
}

// NewServer creates a Server. A nil cfg uses config.DefaultServerConfiguration.
func NewServer(cfg *config.ServerConfiguration, opts ...ServerOption) *Server {
	if cfg == nil {
		cfg = config.DefaultServerConfiguration()
	}
	s := &Server{
		cfg:       cfg,
		log:       logging.Nop(),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = store.NewMemory()
	}
	if s.metrics == nil {
		s.metrics = metrics.NewSet()
	}
	if s.generator == nil {
		s.generator = generator.New()
	}

	d := cfg.Dispatch
	s.notifier = webhook.New(
		webhook.WithTimeout(config.Seconds(d.WebhookTimeout)),
		webhook.WithLogger(s.log.With("component", "webhook")),
		webhook.WithObserver(s.metrics.ObserveWebhook),
	)

	matcher := matching.NewMatcher()
	var caller condition.Caller
	selfCaller := &condition.HandlerCaller{}
	if d.DependentBaseURL != "" {
		caller = condition.NewHTTPCaller(d.DependentBaseURL, config.Seconds(d.DependentTimeout))
	} else {
		caller = selfCaller
	}
	evaluator := condition.New(s.store,
		condition.WithCaller(caller),
		condition.WithTimeout(config.Seconds(d.DependentTimeout)),
		condition.WithMaxDepth(d.MaxDependentDepth),
		condition.WithMatcher(matcher),
		condition.WithObserver(s.metrics.ObserveDependent),
		condition.WithLogger(s.log.With("component", "condition")),
	)

	s.dispatcher = dispatch.New(s.store, s.store, s.store,
		dispatch.WithMatcher(matcher),
		dispatch.WithEvaluator(evaluator),
		dispatch.WithNotifier(s.notifier),
		dispatch.WithSerializedWrites(d.SerializeWrites),
		dispatch.WithMaxBodySize(int64(d.MaxBodySize)),
		dispatch.WithObserver(func(method string, kind dispatch.Kind, status int, elapsed time.Duration) {
			s.metrics.ObserveRequest(method, string(kind), status, elapsed)
		}),
		dispatch.WithLogger(s.log.With("component", "dispatch")),
	)
	// Dependent calls re-enter the dispatcher directly, below the prefix.
	selfCaller.Handler = s.dispatcher

	s.handler = s.buildHandler()
	return s
}

func (s *Server) buildHandler() http.Handler {
	mux := http.NewServeMux()
	s.registerControlRoutes(mux)

	prefix := strings.TrimSuffix(s.cfg.Server.Prefix, "/")
	if prefix == "" {
		mux.Handle("/", s.dispatcher)
	} else {
		mounted := http.StripPrefix(prefix, s.dispatcher)
		mux.Handle(prefix, mounted)
		mux.Handle(prefix+"/", mounted)
	}
	return accessLog(s.log, recoverPanics(s.log, mux))
}

// Handler returns the complete HTTP handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Dispatcher returns the handler serving the prefix, without the prefix.
func (s *Server) Dispatcher() http.Handler {
	return s.dispatcher
}

// Store returns the backend the server serves from.
func (s *Server) Store() store.Store {
	return s.store
}

// Metrics returns the server's metrics set.
func (s *Server) Metrics() *metrics.Set {
	return s.metrics
}

// LoadCatalog stores every definition and seed collection in c, then
// generates the collections c.Generate asks for. Generated collections
// replace seeded ones of the same name.
func (s *Server) LoadCatalog(ctx context.Context, c *catalog.Catalog) error {
	if c == nil {
		return nil
	}
	if err := store.Load(ctx, s.store, c); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if len(c.Generate) == 0 {
		return nil
	}

	defs, err := s.store.ListResources(ctx)
	if err != nil {
		return fmt.Errorf("list resources: %w", err)
	}
	for name := range c.Generate {
		if catalog.FindResource(defs, name) == nil {
			s.log.Warn("generate names an unknown resource", "resource", name)
		}
	}
	existing, err := s.collections(ctx, defs)
	if err != nil {
		return fmt.Errorf("read collections: %w", err)
	}
	for name, recs := range s.generator.All(defs, c.Generate, existing) {
		if err := s.store.PutRecords(ctx, name, recs); err != nil {
			return fmt.Errorf("store generated %s: %w", name, err)
		}
		s.log.Info("generated records", "resource", name, "count", len(recs))
	}
	return nil
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server is already running")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Server.Addr(), err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       config.Seconds(s.cfg.Server.ReadTimeout),
		ReadHeaderTimeout: config.Seconds(s.cfg.Server.ReadTimeout),
		WriteTimeout:      config.Seconds(s.cfg.Server.WriteTimeout),
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}

	srv := s.httpServer
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", "error", err)
		}
	}()

	s.running = true
	s.startTime = time.Now()
	s.log.Info("server started", "addr", ln.Addr().String(), "prefix", s.cfg.Server.Prefix)
	return nil
}

// Addr returns the bound address once started, otherwise the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Server.Addr()
}

// Stop shuts the listener down, waits for webhooks in flight and closes the
// store. It is safe to call on a server that was never started.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.running {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
		}
		s.running = false
		s.listener = nil
	}
	if err := s.notifier.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("webhook drain: %w", err))
	}
	if err := s.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}
	s.log.Info("server stopped")
	return errors.Join(errs...)
}
