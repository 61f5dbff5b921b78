package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory Store backed by a map. It is safe for
// concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[Key][]byte
}

// NewMemoryStore creates a new, empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[Key][]byte),
	}
}

// Get returns a copy of the stored value or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, key Key) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("memory store get: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(value), nil
}

// Set stores every entry under one lock.
func (s *MemoryStore) Set(ctx context.Context, entries ...Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateEntries(entries); err != nil {
		return fmt.Errorf("memory store set: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range entries {
		s.data[entry.Key] = cloneBytes(entry.Value)
	}
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func cloneBytes(value []byte) []byte {
	out := make([]byte, len(value))
	copy(out, value)
	return out
}

var _ Store = (*MemoryStore)(nil)
