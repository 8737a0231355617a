package file

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/logging"
	"github.com/getmockd/mockapi/pkg/record"
	"github.com/getmockd/mockapi/pkg/store"
)

// Current data format version for migration support
const dataVersion = 1

const dataFileName = "data.json"

// storeData is the on-disk layout.
type storeData struct {
	Version   int                           `json:"version"`
	Routes    []*catalog.RouteDefinition    `json:"routes,omitempty"`
	Resources []*catalog.ResourceDefinition `json:"resources,omitempty"`
	Records   map[string][]*record.Record   `json:"records,omitempty"`
}

// FileStore implements store.Store on top of store.Memory with debounced
// snapshots to disk.
type FileStore struct {
	*store.Memory

	cfg          store.Config
	dirty        atomic.Bool
	saveMu       sync.Mutex
	saveDebounce time.Duration
	saveCh       chan struct{}
	closeCh      chan struct{}
	closeOnce    sync.Once
	closedCh     chan struct{} // closed when saveLoop has exited
	log          *slog.Logger
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithLogger sets the logger used for background save failures.
func WithLogger(log *slog.Logger) Option {
	return func(s *FileStore) { s.log = logging.OrNop(log) }
}

// WithDebounce sets how long writes are batched before a save.
func WithDebounce(d time.Duration) Option {
	return func(s *FileStore) { s.saveDebounce = d }
}

// New creates a FileStore. Call Open before use.
func New(cfg store.Config, opts ...Option) *FileStore {
	if cfg.DataDir == "" {
		cfg.DataDir = store.DefaultDataDir()
	}
	s := &FileStore{
		Memory:       store.NewMemory(),
		cfg:          cfg,
		saveDebounce: 500 * time.Millisecond,
		saveCh:       make(chan struct{}, 1),
		closeCh:      make(chan struct{}),
		closedCh:     make(chan struct{}),
		log:          logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Memory.SetReadOnly(cfg.ReadOnly)
	return s
}

// Open loads data.json if it exists and starts the background saver.
func (s *FileStore) Open(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.DataDir, 0o700); err != nil {
		return err
	}

	data, err := os.ReadFile(s.path())
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return err
	default:
		var stored storeData
		if err := json.Unmarshal(data, &stored); err != nil {
			return err
		}
		c := &catalog.Catalog{Routes: stored.Routes, Resources: stored.Resources, Records: stored.Records}
		c.Normalize()
		// Loading goes through Memory directly so it does not mark the store dirty.
		readOnly := s.cfg.ReadOnly
		s.Memory.SetReadOnly(false)
		err := store.Load(ctx, s.Memory, c)
		s.Memory.SetReadOnly(readOnly)
		if err != nil {
			return err
		}
	}

	go s.saveLoop()
	return nil
}

// Close flushes pending changes and stops the saver. Safe to call multiple times.
func (s *FileStore) Close(_ context.Context) error {
	s.closeOnce.Do(func() {
		close(s.closeCh)
	})
	<-s.closedCh
	if s.dirty.Load() {
		return s.save()
	}
	return nil
}

// PutRoute stores a route and schedules a save.
func (s *FileStore) PutRoute(ctx context.Context, route *catalog.RouteDefinition) error {
	if err := s.Memory.PutRoute(ctx, route); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

// DeleteRoute removes a route and schedules a save.
func (s *FileStore) DeleteRoute(ctx context.Context, id string) error {
	if err := s.Memory.DeleteRoute(ctx, id); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

// PutResource stores a resource definition and schedules a save.
func (s *FileStore) PutResource(ctx context.Context, def *catalog.ResourceDefinition) error {
	if err := s.Memory.PutResource(ctx, def); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

// PutRecords replaces a collection and schedules a save.
func (s *FileStore) PutRecords(ctx context.Context, name string, records []*record.Record) error {
	if err := s.Memory.PutRecords(ctx, name, records); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

// ForceSave writes the current state to disk immediately.
func (s *FileStore) ForceSave() error {
	s.dirty.Store(true)
	return s.save()
}

// DataDir returns the data directory path.
func (s *FileStore) DataDir() string {
	return s.cfg.DataDir
}

func (s *FileStore) path() string {
	return filepath.Join(s.cfg.DataDir, dataFileName)
}

// saveLoop handles debounced saving to prevent excessive disk writes.
func (s *FileStore) saveLoop() {
	defer close(s.closedCh)
	var timer *time.Timer
	for {
		select {
		case <-s.saveCh:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(s.saveDebounce, func() {
				if err := s.save(); err != nil {
					s.log.Error("failed to save store data", "error", err)
				}
			})
		case <-s.closeCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (s *FileStore) markDirty() {
	s.dirty.Store(true)
	select {
	case s.saveCh <- struct{}{}:
	default:
	}
}

// save performs an atomic write: temp file, then rename.
func (s *FileStore) save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if !s.dirty.Swap(false) {
		return nil
	}
	if s.cfg.ReadOnly {
		return store.ErrReadOnly
	}

	snap := s.Memory.Snapshot()
	data, err := json.MarshalIndent(storeData{
		Version:   dataVersion,
		Routes:    snap.Routes,
		Resources: snap.Resources,
		Records:   snap.Records,
	}, "", "  ")
	if err != nil {
		s.dirty.Store(true)
		return err
	}

	tmpFile := s.path() + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		s.dirty.Store(true)
		return err
	}
	if err := os.Rename(tmpFile, s.path()); err != nil {
		_ = os.Remove(tmpFile)
		s.dirty.Store(true)
		return err
	}
	return nil
}

var _ store.Store = (*FileStore)(nil)
