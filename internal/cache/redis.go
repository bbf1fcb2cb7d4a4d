package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the cluster-scoped cache backend. TTL handling is
// delegated to Redis expiry.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an existing go-redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the value for key if present.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return raw, true, nil
}

// Put stores value under key with ttl.
func (r *RedisCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Invalidate removes keys, reporting how many existed.
func (r *RedisCache) Invalidate(ctx context.Context, keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	removed, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}
