package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vendasys/backend/internal/domain/rollup"
)

// RedisSummaryStore implements rollup.SummaryStore on plain Redis keys.
// Snapshots carry no TTL; they are replaced by delta-triggered recomputes
// and can always be rebuilt from the ledger.
type RedisSummaryStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisSummaryStore creates a store with an existing Redis client
func NewRedisSummaryStore(client *redis.Client, keyPrefix string) *RedisSummaryStore {
	if keyPrefix == "" {
		keyPrefix = "rollup:"
	}
	return &RedisSummaryStore{client: client, keyPrefix: keyPrefix}
}

// Get returns the stored blob, or (nil, nil) on a cache miss
func (s *RedisSummaryStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read summary snapshot: %w", err)
	}
	return val, nil
}

// Set stores the blob with no expiry
func (s *RedisSummaryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write summary snapshot: %w", err)
	}
	return nil
}

// Delete drops a snapshot
func (s *RedisSummaryStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete summary snapshot: %w", err)
	}
	return nil
}

// Ensure RedisSummaryStore implements SummaryStore
var _ rollup.SummaryStore = (*RedisSummaryStore)(nil)
