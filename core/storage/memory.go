package storage

import (
	"sync"

	"github.com/tony0935929660/match-platform-web-sub000/core"
)

// MemoryStorage keeps values in process memory. Values do not survive a
// restart; use it for tests and throwaway sessions.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ core.Storage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (s *MemoryStorage) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStorage) Set(key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Remove(key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}

// Close is a no-op; the values stay readable.
func (s *MemoryStorage) Close() error {
	return nil
}
