package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store. Safe for concurrent access.
// Values are copied on the way in and out.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var (
	_ Store     = (*MemoryStore)(nil)
	_ KeyLister = (*MemoryStore)(nil)
)

// NewMemoryStore returns a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set stores a copy of value under key.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Remove deletes key.
func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Keys lists stored keys in lexical order.
func (m *MemoryStore) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// HealthCheck always succeeds for the memory store.
func (m *MemoryStore) HealthCheck(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error { return nil }
