// Package service implements the benchmark read models: snapshot
// acquisition, percentile ranking, dashboard building, and cache
// invalidation.
package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/finbench/internal/circuitbreaker"
	"github.com/finbench/internal/logging"
	"github.com/finbench/internal/models"
	"github.com/finbench/internal/stats"
	"github.com/finbench/internal/storage"
	"github.com/finbench/internal/types"
)

// PopulationFetcher is the record store adapter contract the services
// depend on.
type PopulationFetcher interface {
	FetchAll(ctx context.Context) ([]*models.Submission, error)
	FetchFiltered(ctx context.Context, filters *types.DashboardFilters) ([]*models.Submission, error)
}

// PopulationSnapshot is the materialized full population.
type PopulationSnapshot struct {
	Rows       []*models.Submission `json:"rows"`
	Partial    bool                 `json:"partial,omitempty"`
	CapturedAt time.Time            `json:"capturedAt"`
}

// MetricSnapshot is one metric's ascending-sorted values plus the backing
// rows, kept for later cohort slicing.
type MetricSnapshot struct {
	Metric     string               `json:"metric"`
	Sorted     []float64            `json:"sorted"`
	Rows       []*models.Submission `json:"rows"`
	Partial    bool                 `json:"partial,omitempty"`
	CapturedAt time.Time            `json:"capturedAt"`
}

// SnapshotProvider owns snapshot acquisition: cache lookups, bulk loads from
// the store on misses, and cache population. Concurrent misses for the same
// key share a single store load.
type SnapshotProvider struct {
	cache   *storage.SnapshotCache
	repo    PopulationFetcher
	breaker *circuitbreaker.CircuitBreaker

	inflightMu sync.Mutex
	inflight   map[string]chan *inflightSnapshot
}

type inflightSnapshot struct {
	population *PopulationSnapshot
}

// NewSnapshotProvider creates a snapshot provider.
func NewSnapshotProvider(cache *storage.SnapshotCache, repo PopulationFetcher) *SnapshotProvider {
	return &SnapshotProvider{
		cache:    cache,
		repo:     repo,
		breaker:  circuitbreaker.New(circuitbreaker.DefaultConfig("record-store")),
		inflight: make(map[string]chan *inflightSnapshot),
	}
}

// Population returns the full population snapshot, loading and caching it on
// a miss. On a store failure mid-pagination the accumulated partial rows are
// returned with Partial set and the snapshot is not cached; the error is
// absorbed here because callers degrade rather than fail.
func (p *SnapshotProvider) Population(ctx context.Context) *PopulationSnapshot {
	var snap PopulationSnapshot
	if p.cache.Get(ctx, storage.PopulationKey, &snap) {
		return &snap
	}

	resultChan, isNew := p.getOrCreateInflight(storage.PopulationKey)
	if !isNew {
		// Another request is already rebuilding this snapshot; share it.
		// Only one waiter receives the buffered result, the rest observe the
		// closed channel and read the freshly populated cache.
		select {
		case result, ok := <-resultChan:
			if ok && result != nil && result.population != nil {
				return result.population
			}
			if p.cache.Get(ctx, storage.PopulationKey, &snap) {
				return &snap
			}
			return &PopulationSnapshot{CapturedAt: time.Now()}
		case <-ctx.Done():
			return &PopulationSnapshot{CapturedAt: time.Now()}
		}
	}

	population := p.loadPopulation(ctx)
	p.completeInflight(storage.PopulationKey, &inflightSnapshot{population: population})
	return population
}

// loadPopulation pulls the full paginated population through the circuit
// breaker and populates the cache on a complete load.
func (p *SnapshotProvider) loadPopulation(ctx context.Context) *PopulationSnapshot {
	var rows []*models.Submission
	var fetchErr error

	breakerErr := p.breaker.Execute(func() error {
		rows, fetchErr = p.repo.FetchAll(ctx)
		return fetchErr
	})

	snap := &PopulationSnapshot{
		Rows:       rows,
		Partial:    breakerErr != nil,
		CapturedAt: time.Now(),
	}

	if breakerErr != nil {
		logging.FromContext(ctx).WithError(breakerErr).WithField("rows", len(rows)).
			Warn("population load degraded, serving partial data")
		return snap
	}

	// Detach the cache write from the request so an abandoned caller still
	// populates the cache for subsequent requests.
	p.cache.SetSnapshot(context.WithoutCancel(ctx), storage.PopulationKey, snap)
	return snap
}

// Metric returns the cached snapshot for one metric, building it from the
// population snapshot on a miss.
func (p *SnapshotProvider) Metric(ctx context.Context, metric stats.Metric) *MetricSnapshot {
	key := storage.MetricKey(string(metric))

	var snap MetricSnapshot
	if p.cache.Get(ctx, key, &snap) {
		return &snap
	}

	extract, ok := stats.ExtractorFor(metric)
	if !ok {
		// Callers validate the metric name first; an unknown metric here
		// yields an empty snapshot rather than a panic.
		return &MetricSnapshot{Metric: string(metric), CapturedAt: time.Now()}
	}

	population := p.Population(ctx)

	values := make([]float64, 0, len(population.Rows))
	for _, row := range population.Rows {
		if v, ok := extract(row); ok {
			values = append(values, v)
		}
	}
	sort.Float64s(values)

	built := &MetricSnapshot{
		Metric:     string(metric),
		Sorted:     values,
		Rows:       population.Rows,
		Partial:    population.Partial,
		CapturedAt: time.Now(),
	}

	if !built.Partial {
		p.cache.SetSnapshot(context.WithoutCancel(ctx), key, built)
	}
	return built
}

// getOrCreateInflight atomically checks for or creates an in-flight rebuild.
// Returns the result channel and whether this caller owns the rebuild.
func (p *SnapshotProvider) getOrCreateInflight(key string) (chan *inflightSnapshot, bool) {
	p.inflightMu.Lock()
	defer p.inflightMu.Unlock()

	if ch, exists := p.inflight[key]; exists {
		return ch, false
	}

	ch := make(chan *inflightSnapshot, 1)
	p.inflight[key] = ch
	return ch, true
}

// completeInflight broadcasts the result to all waiting requests and cleans up.
func (p *SnapshotProvider) completeInflight(key string, result *inflightSnapshot) {
	p.inflightMu.Lock()
	ch, exists := p.inflight[key]
	if exists {
		delete(p.inflight, key)
	}
	p.inflightMu.Unlock()

	if exists {
		ch <- result
		close(ch)
	}
}
