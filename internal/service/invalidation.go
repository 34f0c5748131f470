package service

import (
	"context"

	"github.com/finbench/internal/logging"
	"github.com/finbench/internal/storage"
)

// Invalidator evicts every derived cache entry when the underlying data
// changes. Eviction is all-or-nothing at the key-family level; there is no
// per-metric invalidation because every snapshot derives from the same
// population.
type Invalidator struct {
	cache *storage.SnapshotCache
}

// NewInvalidator creates an invalidator.
func NewInvalidator(cache *storage.SnapshotCache) *Invalidator {
	return &Invalidator{cache: cache}
}

// InvalidateAll synchronously evicts all snapshot and dashboard entries.
// Idempotent; evicting an empty cache is a no-op.
func (i *Invalidator) InvalidateAll(ctx context.Context) error {
	return i.cache.InvalidateAll(ctx)
}

// Trigger fires an eviction without waiting for it. The goroutine runs on a
// background context so it survives the triggering request; a dropped signal
// only extends staleness until the TTL expires.
func (i *Invalidator) Trigger() {
	go func() {
		ctx := context.Background()
		if err := i.cache.InvalidateAll(ctx); err != nil {
			logging.WithError(err).Warn("async cache invalidation failed")
		}
	}()
}
