// Package memory provides an in-memory key-value store implementation.
// This is the default backend for tests and suitable for throwaway
// single-process deployments; nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/moddi-tech/community/internal/kvstore"
)

// Store implements kvstore.Store using a mutex-guarded map.
type Store struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		items: make(map[string][]byte),
	}
}

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.items[key]
	if !exists {
		return nil, kvstore.ErrKeyNotFound
	}

	// Return a copy to prevent mutation.
	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

// Set stores a value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	s.items[key] = valueCopy
	return nil
}

// Remove deletes a key.
func (s *Store) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}

// Close is a no-op for the in-memory backend.
func (s *Store) Close() error {
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Ensure Store implements kvstore.Store.
var _ kvstore.Store = (*Store)(nil)
