package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_PutGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k", []byte("v"), time.Minute))

	val, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), val)

	_, ok, err = c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })

	require.NoError(t, c.Put(ctx, "k", []byte("v"), 300*time.Second))

	now = now.Add(299 * time.Second)
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "entry should survive until the ttl elapses")

	now = now.Add(2 * time.Second)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire after the ttl")
}

func TestMemoryCache_ZeroTTLNeverExpires(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })

	require.NoError(t, c.Put(ctx, "k", []byte("v"), 0))
	now = now.Add(48 * time.Hour)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCache_Invalidate(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Put(ctx, "b", []byte("2"), time.Minute))

	removed, err := c.Invalidate(ctx, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, ok, _ := c.Get(ctx, "a")
	assert.False(t, ok)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "services", ListKey(ResourceServices))
	assert.Equal(t, "services/42", ItemKey(ResourceServices, "42"))
	assert.Equal(t, []string{"service-requests", "service-requests/7"},
		MutationKeys(ResourceServiceRequests, "7"))
}

type flakyCache struct {
	getErr error
	puts   int
}

func (f *flakyCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, f.getErr
}

func (f *flakyCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.puts++
	return nil
}

func (f *flakyCache) Invalidate(ctx context.Context, keys ...string) (int, error) {
	return 0, nil
}

func TestGetThrough_MissPopulates(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	calls := 0
	fetch := func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"x", "y"}, nil
	}

	got, hit, err := GetThrough(ctx, c, "list", time.Minute, fetch)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []string{"x", "y"}, got)
	assert.Equal(t, 1, calls)

	got, hit, err = GetThrough(ctx, c, "list", time.Minute, fetch)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"x", "y"}, got)
	assert.Equal(t, 1, calls, "second read should be served from cache")
}

func TestGetThrough_BackendErrorFallsBackToStore(t *testing.T) {
	c := &flakyCache{getErr: errors.New("backend down")}
	ctx := context.Background()

	got, hit, err := GetThrough(ctx, c, "k", time.Minute, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 42, got)
}

func TestGetThrough_UndecodableEntryDropped(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k", []byte("{not json"), time.Minute))

	got, hit, err := GetThrough(ctx, c, "k", time.Minute, func(ctx context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7, got)

	// The broken entry was replaced with a fresh encode.
	got, hit, err = GetThrough(ctx, c, "k", time.Minute, func(ctx context.Context) (int, error) {
		return 0, errors.New("store should not be hit")
	})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 7, got)
}

func TestGetThrough_FetchErrorPropagates(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	wantErr := errors.New("boom")
	_, _, err := GetThrough(ctx, c, "k", time.Minute, func(ctx context.Context) (int, error) {
		return 0, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}
