package service

import (
	"context"
	"sync"
	"time"

	"github.com/finbench/internal/models"
	"github.com/finbench/internal/storage"
	"github.com/finbench/internal/types"
)

// submission keeps the test tables compact.
type submission = models.Submission

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func sptr(v string) *string   { return &v }

// mockRepo is an in-memory PopulationFetcher with call counting.
type mockRepo struct {
	mu                 sync.Mutex
	rows               []*models.Submission
	err                error
	delay              time.Duration
	fetchAllCalls      int
	fetchFilteredCalls int
}

func (m *mockRepo) FetchAll(ctx context.Context) ([]*models.Submission, error) {
	m.mu.Lock()
	m.fetchAllCalls++
	rows, err, delay := m.rows, m.err, m.delay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return rows, err
}

func (m *mockRepo) FetchFiltered(ctx context.Context, filters *types.DashboardFilters) ([]*models.Submission, error) {
	m.mu.Lock()
	m.fetchFilteredCalls++
	rows, err := m.rows, m.err
	m.mu.Unlock()

	var out []*models.Submission
	for _, row := range rows {
		if filters.Match(row) {
			out = append(out, row)
		}
	}
	return out, err
}

func (m *mockRepo) calls() (all, filtered int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchAllCalls, m.fetchFilteredCalls
}

func newTestCache() (*storage.SnapshotCache, *storage.MemoryCache) {
	backend := storage.NewMemoryCache()
	return storage.NewSnapshotCache(backend, time.Hour, time.Hour), backend
}

// incomeRow builds a submission carrying only a yearly income.
func incomeRow(id string, income float64) *models.Submission {
	return &models.Submission{ID: id, YearlyIncome: fptr(income), CreatedAt: time.Now()}
}
