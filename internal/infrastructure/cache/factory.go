package cache

import (
	"fmt"

	"github.com/vendasys/backend/internal/domain/rollup"
	"github.com/vendasys/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// StoreFactory creates aggregation-cache stores based on configuration.
// It builds the Redis-backed stores when the configured backend is "redis",
// and can fall back to in-memory stores when Redis is unreachable.
type StoreFactory struct {
	redisConfig config.RedisConfig
	cacheConfig config.CacheConfig
	logger      *zap.Logger
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(redisCfg config.RedisConfig, cacheCfg config.CacheConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig: redisCfg,
		cacheConfig: cacheCfg,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStores creates the ranking and summary stores for the configured
// backend. With the "redis" backend and AllowInMemoryFallback enabled,
// a connection failure degrades to in-memory stores with a warning;
// in-memory state is process-local and rebuildable from the ledger, so
// the degradation costs cache sharing, not correctness.
func (f *StoreFactory) CreateStores() (rollup.RankingStore, rollup.SummaryStore, error) {
	switch f.cacheConfig.Backend {
	case "memory":
		f.logger.Info("using in-memory aggregation cache")
		return NewInMemoryRankingStore(), NewInMemorySummaryStore(), nil

	case "redis":
		client, err := NewRedisClient(RedisConfig{
			Host:     f.redisConfig.Host,
			Port:     f.redisConfig.Port,
			Password: f.redisConfig.Password,
			DB:       f.redisConfig.DB,
		})
		if err == nil {
			f.logger.Info("using Redis aggregation cache",
				zap.String("addr", fmt.Sprintf("%s:%d", f.redisConfig.Host, f.redisConfig.Port)))
			prefix := f.cacheConfig.KeyPrefix
			return NewRedisRankingStore(client, prefix), NewRedisSummaryStore(client, prefix), nil
		}

		if !f.cacheConfig.AllowInMemoryFallback {
			return nil, nil, fmt.Errorf("Redis required for aggregation cache but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory aggregation cache. "+
			"Cached aggregates will not be shared across instances.",
			zap.Error(err),
		)
		return NewInMemoryRankingStore(), NewInMemorySummaryStore(), nil

	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", f.cacheConfig.Backend)
	}
}
