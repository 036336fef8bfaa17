// Package memory provides an in-process KeyValueStore. It backs unit tests
// and lets the service run without Redis (state then lives only as long as
// the process).
package memory

import (
	"context"
	"sync"
)

// Store is a thread-safe in-memory blob store keyed by namespace.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		blobs: make(map[string][]byte),
	}
}

// Get returns the blob for a namespace, or (nil, nil) when absent.
func (s *Store) Get(_ context.Context, namespace string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[namespace]
	if !ok {
		return nil, nil
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, nil
}

// Put overwrites the blob for a namespace.
func (s *Store) Put(_ context.Context, namespace string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	s.blobs[namespace] = cp
	return nil
}
