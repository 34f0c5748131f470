package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbench/internal/stats"
)

func TestSnapshotProvider_PopulationIsCachedAfterFirstLoad(t *testing.T) {
	cache, _ := newTestCache()
	repo := &mockRepo{rows: []*submission{incomeRow("a", 100), incomeRow("b", 200)}}
	provider := NewSnapshotProvider(cache, repo)
	ctx := context.Background()

	first := provider.Population(ctx)
	require.Len(t, first.Rows, 2)
	assert.False(t, first.Partial)

	second := provider.Population(ctx)
	require.Len(t, second.Rows, 2)

	all, _ := repo.calls()
	assert.Equal(t, 1, all, "second read must be served from the cache")
}

func TestSnapshotProvider_PartialPopulationIsServedButNotCached(t *testing.T) {
	cache, backend := newTestCache()
	repo := &mockRepo{
		rows: []*submission{incomeRow("a", 100)},
		err:  errors.New("connection reset"),
	}
	provider := NewSnapshotProvider(cache, repo)
	ctx := context.Background()

	snap := provider.Population(ctx)
	require.Len(t, snap.Rows, 1, "accumulated rows are still usable")
	assert.True(t, snap.Partial)
	assert.Equal(t, 0, backend.Len(), "partial snapshots must not be cached")

	provider.Population(ctx)
	all, _ := repo.calls()
	assert.Equal(t, 2, all, "a partial load must not suppress the next attempt")
}

func TestSnapshotProvider_MetricSnapshotIsSortedAndSkipsAbsent(t *testing.T) {
	cache, _ := newTestCache()
	repo := &mockRepo{rows: []*submission{
		incomeRow("a", 300),
		incomeRow("b", 100),
		{ID: "c", CreatedAt: time.Now()}, // no income recorded
		incomeRow("d", 200),
	}}
	provider := NewSnapshotProvider(cache, repo)

	snap := provider.Metric(context.Background(), stats.MetricIncome)

	assert.Equal(t, []float64{100, 200, 300}, snap.Sorted)
	assert.Len(t, snap.Rows, 4, "backing rows keep every record for slicing")
	assert.False(t, snap.Partial)
}

func TestSnapshotProvider_MetricSnapshotIsCached(t *testing.T) {
	cache, _ := newTestCache()
	repo := &mockRepo{rows: []*submission{incomeRow("a", 100)}}
	provider := NewSnapshotProvider(cache, repo)
	ctx := context.Background()

	provider.Metric(ctx, stats.MetricIncome)
	provider.Metric(ctx, stats.MetricIncome)

	all, _ := repo.calls()
	assert.Equal(t, 1, all)
}

func TestSnapshotProvider_ConcurrentMissesShareOneLoad(t *testing.T) {
	cache, _ := newTestCache()
	repo := &mockRepo{
		rows:  []*submission{incomeRow("a", 100)},
		delay: 50 * time.Millisecond,
	}
	provider := NewSnapshotProvider(cache, repo)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap := provider.Population(context.Background())
			assert.Len(t, snap.Rows, 1)
		}()
	}
	wg.Wait()

	all, _ := repo.calls()
	assert.Equal(t, 1, all, "concurrent misses must share a single store load")
}

func TestSnapshotProvider_EmptyStoreYieldsEmptySnapshot(t *testing.T) {
	cache, _ := newTestCache()
	provider := NewSnapshotProvider(cache, &mockRepo{})

	snap := provider.Metric(context.Background(), stats.MetricIncome)

	assert.Empty(t, snap.Sorted)
	assert.False(t, snap.Partial)
}
