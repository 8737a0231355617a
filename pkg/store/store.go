package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/record"
)

// Common errors
var (
	ErrNotFound = errors.New("not found")
	ErrReadOnly = errors.New("store is read-only")
)

// Backend represents a storage backend type.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendMongo  Backend = "mongo"
)

// Config holds store configuration.
type Config struct {
	Backend Backend `json:"backend" yaml:"backend"`

	// DataDir is where the file backend keeps data.json.
	// Defaults to XDG_DATA_HOME/mockapi or ~/.local/share/mockapi
	DataDir string `json:"dataDir,omitempty" yaml:"dataDir,omitempty"`

	MongoURI      string `json:"mongoUri,omitempty" yaml:"mongoUri,omitempty"`
	MongoDatabase string `json:"mongoDatabase,omitempty" yaml:"mongoDatabase,omitempty"`

	// ReadOnly rejects record writes.
	ReadOnly bool `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Backend:       BackendMemory,
		DataDir:       DefaultDataDir(),
		MongoDatabase: "mockapi",
	}
}

// DefaultDataDir returns the default data directory following XDG conventions.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "mockapi")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".mockapi", "data")
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "mockapi")
	case "windows":
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			return filepath.Join(appData, "mockapi")
		}
		return filepath.Join(home, "AppData", "Local", "mockapi")
	}
	return filepath.Join(home, ".local", "share", "mockapi")
}

// RouteCatalog reads custom route definitions.
type RouteCatalog interface {
	// ListRoutes returns every route in catalog order.
	ListRoutes(ctx context.Context) ([]*catalog.RouteDefinition, error)
	// GetRoute returns ErrNotFound when no route has the id.
	GetRoute(ctx context.Context, id string) (*catalog.RouteDefinition, error)
}

// ResourceCatalog reads resource definitions.
type ResourceCatalog interface {
	ListResources(ctx context.Context) ([]*catalog.ResourceDefinition, error)
}

// RecordStore holds one record collection per resource name.
type RecordStore interface {
	// GetRecords returns ErrNotFound when nothing was ever stored for name.
	// An existing but empty collection is returned as an empty slice.
	GetRecords(ctx context.Context, name string) ([]*record.Record, error)
	// PutRecords replaces the whole collection for name.
	PutRecords(ctx context.Context, name string, records []*record.Record) error
}

// Store is a full backend: both catalogs plus records, and the management
// writes used when loading catalog files.
type Store interface {
	RouteCatalog
	ResourceCatalog
	RecordStore

	PutRoute(ctx context.Context, route *catalog.RouteDefinition) error
	DeleteRoute(ctx context.Context, id string) error
	PutResource(ctx context.Context, def *catalog.ResourceDefinition) error
	Close(ctx context.Context) error
}

// Load writes every definition and seed collection of c into s.
// Existing routes and resources with the same id are replaced.
func Load(ctx context.Context, s Store, c *catalog.Catalog) error {
	for _, r := range c.Routes {
		if err := s.PutRoute(ctx, r); err != nil {
			return err
		}
	}
	for _, d := range c.Resources {
		if err := s.PutResource(ctx, d); err != nil {
			return err
		}
	}
	for name, recs := range c.Records {
		if err := s.PutRecords(ctx, name, recs); err != nil {
			return err
		}
	}
	return nil
}
