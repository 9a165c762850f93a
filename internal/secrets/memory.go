package secrets

import "sync"

// BackendMemory identifies the in-process fallback backend.
const BackendMemory = "memory"

// MemoryStore is the fallback secret store used when no OS secret store is
// available. Secrets live only in process memory and are lost when the
// process exits; nothing is ever written to disk.
type MemoryStore struct {
	mu      sync.Mutex
	secrets map[string]string
}

// NewMemoryStore creates an empty in-memory secret store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[string]string)}
}

// Backend implements Store.
func (m *MemoryStore) Backend() string { return BackendMemory }

// IsAvailable implements Store. The in-memory store is always available.
func (m *MemoryStore) IsAvailable() error { return nil }

// Set implements Store.
func (m *MemoryStore) Set(key, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[key] = secret
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	secret, ok := m.secrets[key]
	if !ok {
		return "", ErrNotFound
	}
	return secret, nil
}

// Delete implements Store. Deleting an absent entry is not an error.
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, key)
	return nil
}

// Clear drops every secret held by the store.
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets = make(map[string]string)
}
