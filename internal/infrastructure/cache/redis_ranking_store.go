package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vendasys/backend/internal/domain/rollup"
)

// RedisRankingStore implements rollup.RankingStore on Redis sorted sets,
// plain counters, and hashes. All keys carry a configurable prefix so
// multiple deployments can share one Redis instance.
type RedisRankingStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisClient creates and pings a Redis client
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisRankingStore creates a store with an existing Redis client
func NewRedisRankingStore(client *redis.Client, keyPrefix string) *RedisRankingStore {
	if keyPrefix == "" {
		keyPrefix = "rollup:"
	}
	return &RedisRankingStore{client: client, keyPrefix: keyPrefix}
}

// Apply issues every write of the batch in a single pipeline so the member
// scores and totals of one delta move together.
func (s *RedisRankingStore) Apply(ctx context.Context, batch rollup.DeltaBatch) error {
	pipe := s.client.TxPipeline()
	for _, inc := range batch.Scores {
		pipe.ZIncrBy(ctx, s.keyPrefix+inc.Key, inc.Delta, inc.Member)
	}
	for _, inc := range batch.Counters {
		pipe.IncrByFloat(ctx, s.keyPrefix+inc.Key, inc.Delta)
	}
	for _, w := range batch.Dict {
		pipe.HSet(ctx, s.keyPrefix+w.Key, w.Field, w.Value)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to apply cache delta batch: %w", err)
	}
	return nil
}

// Score returns the member's score and whether the member exists
func (s *RedisRankingStore) Score(ctx context.Context, key, member string) (float64, bool, error) {
	score, err := s.client.ZScore(ctx, s.keyPrefix+key, member).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read score: %w", err)
	}
	return score, true, nil
}

// Total returns the counter value, 0 when the key is absent
func (s *RedisRankingStore) Total(ctx context.Context, key string) (float64, error) {
	val, err := s.client.Get(ctx, s.keyPrefix+key).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read total: %w", err)
	}
	return val, nil
}

// SetTotal overwrites the counter value with no expiry
func (s *RedisRankingStore) SetTotal(ctx context.Context, key string, value float64) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set total: %w", err)
	}
	return nil
}

// RemoveMembers drops members from a ranked aggregate
func (s *RedisRankingStore) RemoveMembers(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := s.client.ZRem(ctx, s.keyPrefix+key, args...).Err(); err != nil {
		return fmt.Errorf("failed to remove members: %w", err)
	}
	return nil
}

// RangeDesc returns all members of a ranked aggregate, highest score first
func (s *RedisRankingStore) RangeDesc(ctx context.Context, key string) ([]rollup.ScoredMember, error) {
	entries, err := s.client.ZRevRangeWithScores(ctx, s.keyPrefix+key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to range aggregate: %w", err)
	}
	members := make([]rollup.ScoredMember, len(entries))
	for i, e := range entries {
		member, _ := e.Member.(string)
		members[i] = rollup.ScoredMember{Member: member, Score: e.Score}
	}
	return members, nil
}

// DictEntries resolves dictionary fields, omitting absent ones
func (s *RedisRankingStore) DictEntries(ctx context.Context, key string, fields ...string) (map[string]string, error) {
	if len(fields) == 0 {
		return map[string]string{}, nil
	}
	vals, err := s.client.HMGet(ctx, s.keyPrefix+key, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary: %w", err)
	}
	out := make(map[string]string, len(fields))
	for i, v := range vals {
		if str, ok := v.(string); ok {
			out[fields[i]] = str
		}
	}
	return out, nil
}

// Delete removes whole keys
func (s *RedisRankingStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.keyPrefix + k
	}
	if err := s.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisRankingStore) Close() error {
	return s.client.Close()
}

// Ensure RedisRankingStore implements RankingStore
var _ rollup.RankingStore = (*RedisRankingStore)(nil)
