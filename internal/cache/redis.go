package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps cache entries in Redis so several engine processes share them
type RedisStore struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
}

// NewRedisStore wraps an existing client. Keys are namespaced with prefix.
func NewRedisStore(client *redis.Client, prefix string, defaultTTL time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis cache requires a client")
	}
	return &RedisStore{client: client, prefix: prefix, defaultTTL: defaultTTL}, nil
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

// Get retrieves an item. redis.Nil is a miss, not an error.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	return data, true, nil
}

// Set stores an item. A non-positive ttl uses the store default.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

// Delete removes an item
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache key %s: %w", key, err)
	}
	return nil
}

// Stats reports pool statistics of the underlying client
func (s *RedisStore) Stats() map[string]interface{} {
	pool := s.client.PoolStats()
	return map[string]interface{}{
		"backend":             "redis",
		"prefix":              s.prefix,
		"default_ttl_seconds": s.defaultTTL.Seconds(),
		"pool_hits":           pool.Hits,
		"pool_misses":         pool.Misses,
		"pool_timeouts":       pool.Timeouts,
		"pool_total_conns":    pool.TotalConns,
		"pool_idle_conns":     pool.IdleConns,
	}
}
