package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbench/internal/storage"
)

func TestInvalidator_InvalidateAllClearsBothFamilies(t *testing.T) {
	cache, backend := newTestCache()
	ctx := context.Background()

	cache.SetSnapshot(ctx, storage.PopulationKey, "population")
	cache.SetSnapshot(ctx, storage.MetricKey("income"), "income")
	cache.SetDashboard(ctx, storage.DashboardKey("abc"), "dashboard")
	require.Equal(t, 3, backend.Len())

	inv := NewInvalidator(cache)
	require.NoError(t, inv.InvalidateAll(ctx))
	assert.Equal(t, 0, backend.Len())

	require.NoError(t, inv.InvalidateAll(ctx), "invalidating an empty cache is a no-op")
}

func TestInvalidator_TriggerEvictsAsynchronously(t *testing.T) {
	cache, backend := newTestCache()
	ctx := context.Background()

	cache.SetSnapshot(ctx, storage.MetricKey("income"), "income")
	require.Equal(t, 1, backend.Len())

	inv := NewInvalidator(cache)
	inv.Trigger()

	assert.Eventually(t, func() bool {
		return backend.Len() == 0
	}, time.Second, 5*time.Millisecond)
}
