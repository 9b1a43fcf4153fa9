// Package cache is a small JSON-over-Redis cache. A nil *Store, or one whose
// Redis is unreachable, behaves as a permanent miss so callers never need a
// separate code path when caching is off.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bistroboss/bistro/pkg/metrics"
)

// Store wraps a Redis client with a key prefix.
type Store struct {
	rdb    *redis.Client
	prefix string
}

// Connect initialises the Redis client and verifies the connection with a
// ping. The caller decides whether a failure is fatal.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return rdb, nil
}

// New returns a Store namespaced under prefix.
func New(rdb *redis.Client, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) key(k string) string { return s.prefix + k }

// Get unmarshals the cached value under key into dest. It returns true on
// a hit; a miss, a Redis error or a corrupt entry all return false.
func (s *Store) Get(ctx context.Context, key string, dest interface{}) bool {
	if s == nil || s.rdb == nil {
		return false
	}

	val, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		metrics.CacheMisses.WithLabelValues(key).Inc()
		return false
	}

	if err := json.Unmarshal(val, dest); err != nil {
		metrics.CacheMisses.WithLabelValues(key).Inc()
		return false
	}

	metrics.CacheHits.WithLabelValues(key).Inc()
	return true
}

// Set stores value under key for ttl.
func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.rdb.Set(ctx, s.key(key), data, ttl).Err()
}

// Forget removes one or more keys.
func (s *Store) Forget(ctx context.Context, keys ...string) error {
	if s == nil || s.rdb == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	return s.rdb.Del(ctx, full...).Err()
}

// Remember returns the cached value under key, or calls fn, caches its
// result for ttl and returns it. A failed cache write does not fail the
// call.
func Remember[T any](ctx context.Context, s *Store, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var cached T
	if s.Get(ctx, key, &cached) {
		return cached, nil
	}

	val, err := fn(ctx)
	if err != nil {
		return val, err
	}
	_ = s.Set(ctx, key, val, ttl)
	return val, nil
}
