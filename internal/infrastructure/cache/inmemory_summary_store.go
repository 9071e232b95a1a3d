package cache

import (
	"context"
	"sync"

	"github.com/vendasys/backend/internal/domain/rollup"
)

// InMemorySummaryStore implements rollup.SummaryStore with a process-local map
type InMemorySummaryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewInMemorySummaryStore creates a new in-memory summary store
func NewInMemorySummaryStore() *InMemorySummaryStore {
	return &InMemorySummaryStore{blobs: make(map[string][]byte)}
}

// Get returns the stored blob, or (nil, nil) on a cache miss
func (s *InMemorySummaryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

// Set stores the blob
func (s *InMemorySummaryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob := make([]byte, len(value))
	copy(blob, value)
	s.blobs[key] = blob
	return nil
}

// Delete drops a snapshot
func (s *InMemorySummaryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// Ensure InMemorySummaryStore implements SummaryStore
var _ rollup.SummaryStore = (*InMemorySummaryStore)(nil)
