package persistence

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore is a LocalStore kept in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	value []byte
	saves int
	err   error
}

// NewMemoryStore creates a store preloaded with value (may be nil).
func NewMemoryStore(value []byte) *MemoryStore {
	return &MemoryStore{value: slices.Clone(value)}
}

func (s *MemoryStore) Load(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.value), nil
}

func (s *MemoryStore) Save(_ context.Context, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.value = slices.Clone(value)
	s.saves++
	return nil
}

// FailWith makes subsequent saves return err; nil clears it.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Saves returns how many saves succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *MemoryStore) Close() error { return nil }
