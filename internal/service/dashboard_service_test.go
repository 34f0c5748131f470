package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbench/internal/storage"
	"github.com/finbench/internal/types"
)

func benchmarkRows() []*submission {
	return []*submission{
		{
			ID: "a", Age: iptr(27), City: sptr("Bangalore"), Occupation: sptr("Engineer"),
			YearlyIncome: fptr(1200000), TotalSavings: fptr(300000), MonthlyExpenses: fptr(40000),
			NetWorth: fptr(2000000), CreatedAt: time.Now(),
		},
		{
			ID: "b", Age: iptr(33), City: sptr("Mumbai"), Occupation: sptr("Doctor"),
			YearlyIncome: fptr(2000000), TotalSavings: fptr(800000), MonthlyExpenses: fptr(70000),
			NetWorth: fptr(5000000), CreatedAt: time.Now(),
		},
		{
			ID: "c", Age: iptr(45), City: sptr("Bangalore"), Occupation: sptr("Engineer"),
			YearlyIncome: fptr(900000), TotalSavings: fptr(150000), MonthlyExpenses: fptr(35000),
			Extra: map[string]float64{"monthly_emi": 25000}, CreatedAt: time.Now(),
		},
	}
}

func newDashboardFixture(rows []*submission, minCohort, leaderboardMin int) (*DashboardService, *mockRepo, *storage.MemoryCache) {
	cache, backend := newTestCache()
	repo := &mockRepo{rows: rows}
	provider := NewSnapshotProvider(cache, repo)
	svc := NewDashboardService(provider, repo, cache, minCohort, leaderboardMin)
	return svc, repo, backend
}

func TestDashboardService_UnfilteredPayload(t *testing.T) {
	svc, _, _ := newDashboardFixture(benchmarkRows(), 1, 1)

	payload, err := svc.GetDashboard(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, payload.Cohort.SampleSize)
	assert.False(t, payload.Degraded)
	assert.False(t, payload.Warnings.CohortSmall)
	assert.False(t, payload.Warnings.LeaderboardSmall)

	assert.Contains(t, payload.GlobalAverages, "income")
	assert.NotContains(t, payload.GlobalAverages, "gold_value_estimate",
		"metrics absent from every record stay out of the averages")

	assert.Equal(t, []string{"Bangalore", "Mumbai"}, payload.Facets.Cities)
	assert.Equal(t, []string{"25-29", "30-34", "45-49"}, payload.Facets.AgeBands)

	require.NotEmpty(t, payload.Leaderboards.IncomeByOccupation)
	top := payload.Leaderboards.IncomeByOccupation[0]
	assert.Equal(t, "Doctor", top.Label)
	assert.Equal(t, 1, top.SampleSize)

	assert.Equal(t, 1, payload.EMI.Count)
	assert.Equal(t, 25000.0, payload.EMI.Average)
}

func TestDashboardService_SecondCallHitsCache(t *testing.T) {
	svc, repo, _ := newDashboardFixture(benchmarkRows(), 1, 1)
	ctx := context.Background()

	first, err := svc.GetDashboard(ctx, nil)
	require.NoError(t, err)
	second, err := svc.GetDashboard(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, first.GeneratedAt.Unix(), second.GeneratedAt.Unix(),
		"second call must return the cached payload, not a rebuild")
	all, _ := repo.calls()
	assert.Equal(t, 1, all)
}

func TestDashboardService_FiltersNarrowTheCohort(t *testing.T) {
	svc, _, _ := newDashboardFixture(benchmarkRows(), 1, 1)

	payload, err := svc.GetDashboard(context.Background(), &types.DashboardFilters{
		Cities: []string{"bangalore"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, payload.Cohort.SampleSize, "city filtering is case-insensitive")
	assert.Equal(t, []string{"Bangalore", "Mumbai"}, payload.Facets.Cities,
		"facets always reflect the full population")
}

func TestDashboardService_EquivalentFilterOrdersShareOneEntry(t *testing.T) {
	svc, _, backend := newDashboardFixture(benchmarkRows(), 1, 1)
	ctx := context.Background()

	_, err := svc.GetDashboard(ctx, &types.DashboardFilters{Cities: []string{"Bangalore", "Mumbai"}})
	require.NoError(t, err)
	entriesAfterFirst := backend.Len()

	_, err = svc.GetDashboard(ctx, &types.DashboardFilters{Cities: []string{"mumbai", "bangalore"}})
	require.NoError(t, err)

	assert.Equal(t, entriesAfterFirst, backend.Len(),
		"reordered filters must reuse the same cache entry")
}

func TestDashboardService_SmallCohortSuppressesLeaderboards(t *testing.T) {
	svc, _, _ := newDashboardFixture(benchmarkRows(), 5, 10)

	payload, err := svc.GetDashboard(context.Background(), nil)
	require.NoError(t, err)

	assert.True(t, payload.Warnings.CohortSmall)
	assert.True(t, payload.Warnings.LeaderboardSmall)
	assert.Empty(t, payload.Leaderboards.IncomeByOccupation)
	assert.Empty(t, payload.Leaderboards.NetWorthByAgeBand)
	assert.Equal(t, 3, payload.Cohort.SampleSize, "summary is still served for small cohorts")
}

func TestDashboardService_EmptySnapshotWithFiltersFallsBackToStore(t *testing.T) {
	svc, repo, backend := newDashboardFixture(nil, 1, 1)
	repo.rows = nil

	payload, err := svc.GetDashboard(context.Background(), &types.DashboardFilters{
		Cities: []string{"Bangalore"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, payload.Cohort.SampleSize)

	_, filtered := repo.calls()
	assert.Equal(t, 1, filtered, "cold start with filters queries the store directly")

	// Only the empty population snapshot is cached; the fallback payload is not.
	assert.Equal(t, 1, backend.Len())
}

func TestDashboardService_DegradedPayloadIsServedButNotCached(t *testing.T) {
	cache, backend := newTestCache()
	repo := &mockRepo{
		rows: benchmarkRows(),
		err:  errors.New("store down"),
	}
	provider := NewSnapshotProvider(cache, repo)
	svc := NewDashboardService(provider, repo, cache, 1, 1)

	payload, err := svc.GetDashboard(context.Background(), nil)
	require.NoError(t, err)

	assert.True(t, payload.Degraded)
	assert.Equal(t, 3, payload.Cohort.SampleSize, "partial rows are still aggregated")
	assert.Equal(t, 0, backend.Len(), "degraded payloads must not be cached")
}
