// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Used for tests and single-process development, where durability is not required.
//
// Characteristics:
//   - Stores raw JSON bytes keyed by string in a map.
//   - Concurrency-safe via RWMutex: a single Get or Set is atomic, nothing more.
//   - Values are copied in and out, so callers never share memory with stored state.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"
)

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu   sync.RWMutex      // guards data map
	data map[string][]byte // keyed by collection key
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key, or ErrNotFound.
func (m *memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set replaces the value stored under key.
func (m *memory) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Close is a no-op for the memory store.
func (m *memory) Close() error { return nil }
