package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value      []byte
	insertedAt time.Time
	ttl        time.Duration
}

func (e memoryEntry) expired(now time.Time) bool {
	if e.ttl <= 0 {
		return false
	}
	return now.Sub(e.insertedAt) >= e.ttl
}

// MemoryCache is a process-scoped cache backend. Expired entries are
// reaped lazily on access.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the unexpired value for key.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if entry.expired(m.now()) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Put stores value under key for ttl.
func (m *MemoryCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{value: value, insertedAt: m.now(), ttl: ttl}
	return nil
}

// Invalidate removes keys, reporting how many were present.
func (m *MemoryCache) Invalidate(ctx context.Context, keys ...string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, key := range keys {
		if entry, ok := m.entries[key]; ok {
			delete(m.entries, key)
			if !entry.expired(m.now()) {
				removed++
			}
		}
	}
	return removed, nil
}

// SetClock overrides the time source. Test hook.
func (m *MemoryCache) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}
