package driver

import "sync"

// MemoryStore in-process KeyValueDB, used in tests and as a fallback when no
// durable device store is configured
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ KeyValueDB = (*MemoryStore)(nil)

// NewMemoryStore create an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Set implement KeyValueDB
func (m *MemoryStore) Set(key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Get implement KeyValueDB
func (m *MemoryStore) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// Delete implement KeyValueDB
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Exists implement KeyValueDB
func (m *MemoryStore) Exists(key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok, nil
}

// Ping implement KeyValueDB
func (m *MemoryStore) Ping() error { return nil }

// Close implement KeyValueDB
func (m *MemoryStore) Close() error { return nil }
