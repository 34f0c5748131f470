package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisCacheFromClient(client)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

type testPayload struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestSnapshotCache_RoundTrip(t *testing.T) {
	backend, _ := newTestRedisCache(t)
	cache := NewSnapshotCache(backend, time.Hour, time.Hour)
	ctx := context.Background()

	written := testPayload{Name: "income", Value: 1234.56}
	cache.SetSnapshot(ctx, MetricKey("income"), written)

	var read testPayload
	require.True(t, cache.Get(ctx, MetricKey("income"), &read))
	assert.Equal(t, written, read)
}

func TestSnapshotCache_MissOnUnknownKey(t *testing.T) {
	backend, _ := newTestRedisCache(t)
	cache := NewSnapshotCache(backend, time.Hour, time.Hour)

	var dest testPayload
	assert.False(t, cache.Get(context.Background(), MetricKey("savings"), &dest))
}

func TestSnapshotCache_TTLExpiry(t *testing.T) {
	backend, mr := newTestRedisCache(t)
	cache := NewSnapshotCache(backend, time.Minute, time.Hour)
	ctx := context.Background()

	cache.SetSnapshot(ctx, MetricKey("income"), testPayload{Name: "income"})

	var dest testPayload
	require.True(t, cache.Get(ctx, MetricKey("income"), &dest))

	mr.FastForward(2 * time.Minute)
	assert.False(t, cache.Get(ctx, MetricKey("income"), &dest))
}

func TestSnapshotCache_InvalidateIsIdempotent(t *testing.T) {
	backend, _ := newTestRedisCache(t)
	cache := NewSnapshotCache(backend, time.Hour, time.Hour)
	ctx := context.Background()

	cache.SetSnapshot(ctx, MetricKey("income"), testPayload{Name: "income"})

	require.NoError(t, cache.Invalidate(ctx, MetricKey("income")))
	// Second invalidation of the same key is a no-op, never an error.
	require.NoError(t, cache.Invalidate(ctx, MetricKey("income")))

	var dest testPayload
	assert.False(t, cache.Get(ctx, MetricKey("income"), &dest))
}

func TestSnapshotCache_InvalidateAll(t *testing.T) {
	backend, _ := newTestRedisCache(t)
	cache := NewSnapshotCache(backend, time.Hour, time.Hour)
	ctx := context.Background()

	cache.SetSnapshot(ctx, PopulationKey, testPayload{Name: "population"})
	cache.SetSnapshot(ctx, MetricKey("income"), testPayload{Name: "income"})
	cache.SetDashboard(ctx, DashboardKey("abc123"), testPayload{Name: "dashboard"})

	require.NoError(t, cache.InvalidateAll(ctx))

	var dest testPayload
	assert.False(t, cache.Get(ctx, PopulationKey, &dest))
	assert.False(t, cache.Get(ctx, MetricKey("income"), &dest))
	assert.False(t, cache.Get(ctx, DashboardKey("abc123"), &dest))

	require.NoError(t, cache.InvalidateAll(ctx), "repeat invalidation must not error")
}

func TestSnapshotCache_BackendFailureIsAMiss(t *testing.T) {
	backend, mr := newTestRedisCache(t)
	cache := NewSnapshotCache(backend, time.Hour, time.Hour)
	ctx := context.Background()

	cache.SetSnapshot(ctx, MetricKey("income"), testPayload{Name: "income"})

	mr.Close()

	var dest testPayload
	assert.False(t, cache.Get(ctx, MetricKey("income"), &dest),
		"a cache backend failure on read must be treated as a miss")

	// Writes against a dead backend are swallowed.
	assert.NotPanics(t, func() {
		cache.SetSnapshot(ctx, MetricKey("income"), testPayload{Name: "income"})
	})
}

func TestSnapshotCache_CorruptValueIsAMiss(t *testing.T) {
	backend, mr := newTestRedisCache(t)
	cache := NewSnapshotCache(backend, time.Hour, time.Hour)

	mr.Set(MetricKey("income"), "{not json")

	var dest testPayload
	assert.False(t, cache.Get(context.Background(), MetricKey("income"), &dest))
}

func TestMemoryCache_SameSemanticsAsRedis(t *testing.T) {
	cache := NewSnapshotCache(NewMemoryCache(), time.Hour, time.Hour)
	ctx := context.Background()

	written := testPayload{Name: "net_worth", Value: 42}
	cache.SetSnapshot(ctx, MetricKey("net_worth"), written)

	var read testPayload
	require.True(t, cache.Get(ctx, MetricKey("net_worth"), &read))
	assert.Equal(t, written, read)

	require.NoError(t, cache.InvalidateAll(ctx))
	assert.False(t, cache.Get(ctx, MetricKey("net_worth"), &read))
}

func TestMemoryCache_Expiry(t *testing.T) {
	mc := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", "v", time.Nanosecond))
	time.Sleep(5 * time.Millisecond)

	_, found, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_DeleteByPrefix(t *testing.T) {
	mc := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "dashboard:a", "1", 0))
	require.NoError(t, mc.Set(ctx, "dashboard:b", "2", 0))
	require.NoError(t, mc.Set(ctx, "snapshot:income", "3", 0))

	require.NoError(t, mc.DeleteByPrefix(ctx, "dashboard:"))

	assert.Equal(t, 1, mc.Len())
	_, found, _ := mc.Get(ctx, "snapshot:income")
	assert.True(t, found)
}

func TestMetricKeyFamilies(t *testing.T) {
	assert.Equal(t, "snapshot:income", MetricKey("income"))
	assert.Equal(t, "dashboard:abc", DashboardKey("abc"))
	assert.Equal(t, "snapshot:population", PopulationKey)
}
