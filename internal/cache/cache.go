// Package cache implements the read-through cache shared by the list
// and item reads. Entries are a time-bounded copy of store data, never
// the source of truth.
//
// Invalidation runs post-commit on the request path, outside the
// database transaction. A concurrent reader can observe a stale cached
// value in the window between commit and invalidation; the accepted
// staleness bound is that one round trip, not strict consistency.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache is the key-value contract used by the service layer. Values are
// stored as opaque bytes; callers JSON-encode through the read-through
// helpers below.
type Cache interface {
	// Get returns the cached value and whether the key was present and
	// unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores a value under key for ttl.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Invalidate removes the given keys, returning how many were
	// actually present.
	Invalidate(ctx context.Context, keys ...string) (int, error)
}

// GetThrough serves dest from cache when possible, otherwise invokes
// fetch, populates the cache with ttl and fills dest with the fetched
// value. Cache backend failures fall back to the store fetch; a stale
// read is worse than a slow one, a failed one is not.
func GetThrough[T any](ctx context.Context, c Cache, key string, ttl time.Duration, fetch func(ctx context.Context) (T, error)) (T, bool, error) {
	var dest T
	if c != nil {
		if raw, ok, err := c.Get(ctx, key); err == nil && ok {
			if err := json.Unmarshal(raw, &dest); err == nil {
				return dest, true, nil
			}
			// Undecodable entry: drop it and fall through to the store.
			_, _ = c.Invalidate(ctx, key)
		}
	}

	dest, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}

	if c != nil {
		if raw, err := json.Marshal(dest); err == nil {
			_ = c.Put(ctx, key, raw, ttl)
		}
	}
	return dest, false, nil
}
