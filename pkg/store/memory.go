package store

import (
	"context"
	"sync"

	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/record"
)

// Memory is a thread-safe in-memory Store. Records are copied on every read
// and write so callers can mutate what they get back.
type Memory struct {
	mu        sync.RWMutex
	routes    []*catalog.RouteDefinition
	resources []*catalog.ResourceDefinition
	records   map[string][]*record.Record
	readOnly  bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string][]*record.Record)}
}

// SetReadOnly makes PutRecords fail with ErrReadOnly.
func (m *Memory) SetReadOnly(readOnly bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readOnly = readOnly
}

// ListRoutes returns every route in insertion order.
func (m *Memory) ListRoutes(_ context.Context) ([]*catalog.RouteDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*catalog.RouteDefinition, len(m.routes))
	copy(out, m.routes)
	return out, nil
}

// GetRoute returns the route with the given id.
func (m *Memory) GetRoute(_ context.Context, id string) (*catalog.RouteDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.routes {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

// PutRoute adds a route, or replaces the one with the same id in place.
func (m *Memory) PutRoute(_ context.Context, route *catalog.RouteDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.routes {
		if r.ID == route.ID {
			m.routes[i] = route
			return nil
		}
	}
	m.routes = append(m.routes, route)
	return nil
}

// DeleteRoute removes the route with the given id.
func (m *Memory) DeleteRoute(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.routes {
		if r.ID == id {
			m.routes = append(m.routes[:i], m.routes[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// ListResources returns every resource definition in insertion order.
func (m *Memory) ListResources(_ context.Context) ([]*catalog.ResourceDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*catalog.ResourceDefinition, len(m.resources))
	copy(out, m.resources)
	return out, nil
}

// PutResource adds a resource definition, or replaces the one with the same name.
func (m *Memory) PutResource(_ context.Context, def *catalog.ResourceDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.resources {
		if d.Name == def.Name {
			m.resources[i] = def
			return nil
		}
	}
	m.resources = append(m.resources, def)
	return nil
}

// GetRecords returns a copy of the collection stored under name.
func (m *Memory) GetRecords(_ context.Context, name string) ([]*record.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs, ok := m.records[name]
	if !ok {
		return nil, ErrNotFound
	}
	out := record.CloneAll(recs)
	if out == nil {
		out = []*record.Record{}
	}
	return out, nil
}

// PutRecords replaces the collection stored under name with a copy of records.
func (m *Memory) PutRecords(_ context.Context, name string, records []*record.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readOnly {
		return ErrReadOnly
	}
	out := record.CloneAll(records)
	if out == nil {
		out = []*record.Record{}
	}
	m.records[name] = out
	return nil
}

// Snapshot returns a copy of everything held, as a catalog.
func (m *Memory) Snapshot() *catalog.Catalog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := &catalog.Catalog{
		Routes:    append([]*catalog.RouteDefinition(nil), m.routes...),
		Resources: append([]*catalog.ResourceDefinition(nil), m.resources...),
		Records:   make(map[string][]*record.Record, len(m.records)),
	}
	for name, recs := range m.records {
		c.Records[name] = record.CloneAll(recs)
	}
	return c
}

// Close is a no-op.
func (m *Memory) Close(context.Context) error {
	return nil
}

var _ Store = (*Memory)(nil)
