package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store handles Redis operations for scout's persisted state: core state
// blobs, the exclusion set and the search-history log.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Get returns the state blob for a namespace, or (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, namespace string) ([]byte, error) {
	data, err := s.client.Get(ctx, StateKey(namespace)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get state %s: %w", namespace, err)
	}
	return data, nil
}

// Put overwrites the state blob for a namespace. Blobs carry no TTL; the
// owning component decides what is stale.
func (s *Store) Put(ctx context.Context, namespace string, data []byte) error {
	if err := s.client.Set(ctx, StateKey(namespace), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to put state %s: %w", namespace, err)
	}
	return nil
}
