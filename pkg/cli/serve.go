package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/cli/internal/output"
	"github.com/getmockd/mockapi/pkg/config"
	"github.com/getmockd/mockapi/pkg/engine"
	"github.com/getmockd/mockapi/pkg/generator"
	"github.com/getmockd/mockapi/pkg/logging"
	"github.com/getmockd/mockapi/pkg/store"
)

// serveFlags holds the serve command's flag values. Only flags the user set
// override the configuration file and environment.
type serveFlags struct {
	configFile       string
	port             int
	host             string
	prefix           string
	catalogs         []string
	storeBackend     string
	dataDir          string
	mongoURI         string
	mongoDatabase    string
	dependentBaseURL string
	serializeWrites  bool
	readOnly         bool
	logLevel         string
	logFormat        string
	seed             uint64
}

func newServeCmd() *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve [catalog files or globs...]",
		Short: "Start the mock API server",
		Long: `Start the mock API server.

Catalog files (YAML or JSON) are loaded in order; "**" globs are supported.
Positional arguments are added to --catalog and to catalog.files from the
configuration file.`,
		Example: `  mockapi serve catalog.yaml
  mockapi serve --port 8080 --prefix /mock 'catalogs/**/*.yaml'
  mockapi serve --config mockapi.yaml --store mongo --mongo-uri mongodb://localhost:27017`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.catalogs = append(f.catalogs, args...)
			cfg, err := resolveServeConfig(cmd.Flags(), f, os.Getenv)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd.ErrOrStderr(), cfg, f.seed)
		},
	}

	f.register(cmd.Flags())
	return cmd
}

func (f *serveFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configFile, "config", "c", "", "Configuration file (env: "+config.EnvConfig+")")
	fs.IntVarP(&f.port, "port", "p", config.DefaultPort, "HTTP port")
	fs.StringVar(&f.host, "host", "", "Bind address (default all interfaces)")
	fs.StringVar(&f.prefix, "prefix", config.DefaultPrefix, "Path the dispatcher is mounted under")
	fs.StringArrayVar(&f.catalogs, "catalog", nil, "Catalog file or glob (repeatable)")
	fs.StringVar(&f.storeBackend, "store", string(store.BackendMemory), "Store backend: memory, file or mongo")
	fs.StringVar(&f.dataDir, "data-dir", "", "Data directory for the file store")
	fs.StringVar(&f.mongoURI, "mongo-uri", "", "MongoDB connection URI")
	fs.StringVar(&f.mongoDatabase, "mongo-database", "", "MongoDB database name")
	fs.StringVar(&f.dependentBaseURL, "dependent-base-url", "", "Call dependent routes over HTTP at this base URL")
	fs.BoolVar(&f.serializeWrites, "serialize-writes", false, "Serialize writes per resource")
	fs.BoolVar(&f.readOnly, "read-only", false, "Reject record writes")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "text", "Log format: text or json")
	fs.Uint64Var(&f.seed, "seed", 0, "Seed for generated data (0 picks a random seed)")
}

// resolveServeConfig layers defaults, the configuration file, MOCKAPI_*
// variables and explicitly set flags, in that order. Relative catalog
// patterns from the configuration file resolve against its directory.
func resolveServeConfig(fs *pflag.FlagSet, f *serveFlags, getenv func(string) string) (*config.ServerConfiguration, error) {
	cfg := config.DefaultServerConfiguration()
	baseDir := ""

	path := f.configFile
	if path == "" {
		path = getenv(config.EnvConfig)
	}
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		baseDir = filepath.Dir(path)
	}

	config.ApplyEnv(cfg, getenv)

	if fs.Changed("port") {
		cfg.Server.Port = f.port
	}
	if fs.Changed("host") {
		cfg.Server.Host = f.host
	}
	if fs.Changed("prefix") {
		cfg.Server.Prefix = f.prefix
	}
	if fs.Changed("store") {
		cfg.Store.Backend = store.Backend(f.storeBackend)
	}
	if fs.Changed("data-dir") {
		cfg.Store.DataDir = f.dataDir
	}
	if fs.Changed("mongo-uri") {
		cfg.Store.MongoURI = f.mongoURI
	}
	if fs.Changed("mongo-database") {
		cfg.Store.MongoDatabase = f.mongoDatabase
	}
	if fs.Changed("dependent-base-url") {
		cfg.Dispatch.DependentBaseURL = f.dependentBaseURL
	}
	if fs.Changed("serialize-writes") {
		cfg.Dispatch.SerializeWrites = f.serializeWrites
	}
	if fs.Changed("read-only") {
		cfg.Store.ReadOnly = f.readOnly
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if fs.Changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}

	files := make([]string, 0, len(cfg.Catalog.Files)+len(f.catalogs))
	for _, p := range cfg.Catalog.Files {
		files = append(files, config.ResolvePath(baseDir, p))
	}
	cfg.Catalog.Files = append(files, f.catalogs...)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// runServe blocks until ctx is done.
func runServe(ctx context.Context, stderr io.Writer, cfg *config.ServerConfiguration, seed uint64) error {
	log := logging.New(cfg.Logging.LoggerConfig())

	c, err := loadCatalog(cfg.Catalog.Files)
	if err != nil {
		return err
	}
	rep := catalog.ValidateCatalog(c)
	for _, w := range rep.Warnings {
		output.Warn(stderr, "%s", w)
	}
	if err := rep.Err(); err != nil {
		return fmt.Errorf("invalid catalog:\n%w", err)
	}

	st, err := engine.OpenStore(ctx, cfg.Store, log.With("component", "store"))
	if err != nil {
		return err
	}

	opts := []engine.ServerOption{engine.WithLogger(log), engine.WithStore(st)}
	if seed != 0 {
		opts = append(opts, engine.WithGenerator(generator.New(generator.WithSeed(seed))))
	}
	srv := engine.NewServer(cfg, opts...)

	shutdown := func() error {
		sctx, cancel := context.WithTimeout(context.Background(), config.Seconds(cfg.Server.ShutdownTimeout))
		defer cancel()
		return srv.Stop(sctx)
	}

	if err := srv.LoadCatalog(ctx, c); err != nil {
		return errors.Join(err, shutdown())
	}
	if err := srv.Start(ctx); err != nil {
		return errors.Join(err, shutdown())
	}
	log.Info("serving mock API",
		"addr", srv.Addr(),
		"prefix", cfg.Server.Prefix,
		"routes", len(c.Routes),
		"resources", len(c.Resources),
		"store", string(cfg.Store.Backend),
	)

	<-ctx.Done()
	log.Info("shutting down")
	if err := shutdown(); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		return err
	}
	return nil
}

// loadCatalog merges every catalog matched by patterns. No patterns yields
// an empty catalog.
func loadCatalog(patterns []string) (*catalog.Catalog, error) {
	if len(patterns) == 0 {
		return &catalog.Catalog{}, nil
	}
	return config.LoadCatalogFiles(patterns, "")
}
