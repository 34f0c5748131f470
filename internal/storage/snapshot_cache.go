package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/finbench/internal/logging"
)

// Key families for the two cached snapshot kinds.
const (
	// KeyPrefixSnapshot covers the full population snapshot and the
	// per-metric snapshots (sorted values plus backing rows).
	KeyPrefixSnapshot = "snapshot:"
	// KeyPrefixDashboard covers dashboard payload variants, one key per
	// filter fingerprint.
	KeyPrefixDashboard = "dashboard:"
)

// PopulationKey is the cache key for the full unsorted population snapshot.
const PopulationKey = KeyPrefixSnapshot + "population"

// MetricKey returns the cache key for one metric's snapshot.
func MetricKey(metric string) string {
	return KeyPrefixSnapshot + metric
}

// DashboardKey returns the cache key for a dashboard payload variant.
func DashboardKey(fingerprint string) string {
	return KeyPrefixDashboard + fingerprint
}

// SnapshotCache memoizes population data with a time bound. It is the single
// owner of cached snapshot bytes; services request population through it and
// never mutate cached state directly.
//
// All operations are best-effort: a backend failure on read is a miss, a
// backend failure on write or invalidate is logged and swallowed. Cache
// trouble never fails the surrounding request.
type SnapshotCache struct {
	backend      Cache
	snapshotTTL  time.Duration
	dashboardTTL time.Duration
}

// NewSnapshotCache creates a snapshot cache over a backend.
func NewSnapshotCache(backend Cache, snapshotTTL, dashboardTTL time.Duration) *SnapshotCache {
	return &SnapshotCache{
		backend:      backend,
		snapshotTTL:  snapshotTTL,
		dashboardTTL: dashboardTTL,
	}
}

// Get looks up a key and deserializes the cached JSON into dest. Returns
// false on a miss, on expired data, and on any backend or decode failure.
func (c *SnapshotCache) Get(ctx context.Context, key string, dest interface{}) bool {
	data, found, err := c.backend.Get(ctx, key)
	if err != nil {
		logging.FromContext(ctx).WithError(err).WithField("key", key).
			Warn("cache read failed, treating as miss")
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("key", key).
			Warn("cached value undecodable, treating as miss")
		return false
	}
	return true
}

// SetSnapshot stores a population or metric snapshot with the snapshot TTL.
func (c *SnapshotCache) SetSnapshot(ctx context.Context, key string, value interface{}) {
	c.set(ctx, key, value, c.snapshotTTL)
}

// SetDashboard stores a dashboard payload with the dashboard TTL.
func (c *SnapshotCache) SetDashboard(ctx context.Context, key string, value interface{}) {
	c.set(ctx, key, value, c.dashboardTTL)
}

// set serializes and writes, swallowing backend failures.
func (c *SnapshotCache) set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logging.FromContext(ctx).WithError(err).WithField("key", key).
			Warn("failed to serialize value for cache")
		return
	}
	if err := c.backend.Set(ctx, key, string(data), ttl); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("key", key).
			Warn("cache write failed, continuing without caching")
	}
}

// Invalidate removes specific keys. Idempotent: deleting an absent key is a
// no-op.
func (c *SnapshotCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.backend.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to invalidate keys: %w", err)
	}
	return nil
}

// InvalidateAll evicts every metric snapshot and every dashboard payload
// variant. Safe to call concurrently with in-flight reads and repeatedly.
func (c *SnapshotCache) InvalidateAll(ctx context.Context) error {
	if err := c.backend.DeleteByPrefix(ctx, KeyPrefixSnapshot); err != nil {
		return fmt.Errorf("failed to invalidate snapshots: %w", err)
	}
	if err := c.backend.DeleteByPrefix(ctx, KeyPrefixDashboard); err != nil {
		return fmt.Errorf("failed to invalidate dashboard payloads: %w", err)
	}
	return nil
}

// Ping reports backend reachability, for health checks.
func (c *SnapshotCache) Ping(ctx context.Context) error {
	return c.backend.Ping(ctx)
}

// SnapshotTTL returns the TTL applied to metric and population snapshots.
func (c *SnapshotCache) SnapshotTTL() time.Duration {
	return c.snapshotTTL
}
