package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/getmockd/mockapi/pkg/store"
	"github.com/getmockd/mockapi/pkg/store/file"
	"github.com/getmockd/mockapi/pkg/store/mongo"
)

// OpenStore creates the backend named by cfg.Backend.
func OpenStore(ctx context.Context, cfg store.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.Backend {
	case store.BackendMemory, "":
		m := store.NewMemory()
		m.SetReadOnly(cfg.ReadOnly)
		return m, nil
	case store.BackendFile:
		fs := file.New(cfg, file.WithLogger(log))
		if err := fs.Open(ctx); err != nil {
			return nil, fmt.Errorf("open file store in %s: %w", fs.DataDir(), err)
		}
		return fs, nil
	case store.BackendMongo:
		return mongo.Open(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
