package credentials

import "sync"

// MemoryStore keeps tokens in process memory
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryStore) SetPair(accessToken, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[AccessTokenKey] = accessToken
	m.values[RefreshTokenKey] = refreshToken
	return nil
}

func (m *MemoryStore) ClearPair() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, AccessTokenKey)
	delete(m.values, RefreshTokenKey)
	return nil
}
