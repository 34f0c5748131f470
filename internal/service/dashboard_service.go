package service

import (
	"context"
	"sort"
	"time"

	"github.com/finbench/internal/logging"
	"github.com/finbench/internal/models"
	"github.com/finbench/internal/stats"
	"github.com/finbench/internal/storage"
	"github.com/finbench/internal/types"
)

// leaderboardLimit caps every dashboard leaderboard.
const leaderboardLimit = 10

// DashboardPayload is the full dashboard response for one filter set.
type DashboardPayload struct {
	Cohort          stats.CohortSummary      `json:"cohort"`
	GlobalAverages  map[string]float64       `json:"globalAverages"`
	Leaderboards    DashboardLeaderboards    `json:"leaderboards"`
	EMI             stats.Summary            `json:"emi"`
	Facets          DashboardFacets          `json:"facets"`
	Warnings        DashboardWarnings        `json:"warnings"`
	Degraded        bool                     `json:"degraded,omitempty"`
	GeneratedAt     time.Time                `json:"generatedAt"`
}

// DashboardLeaderboards holds the grouped rankings shown on the dashboard.
// Each is emitted empty when the filtered cohort is below the leaderboard
// minimum.
type DashboardLeaderboards struct {
	IncomeByOccupation []stats.LeaderboardEntry `json:"incomeByOccupation"`
	NetWorthByAgeBand  []stats.LeaderboardEntry `json:"netWorthByAgeBand"`
	IncomeByCity       []stats.LeaderboardEntry `json:"incomeByCity"`
	SavingsByIncome    []stats.LeaderboardEntry `json:"savingsByIncomeSlab"`
}

// DashboardFacets lists the distinct filterable values present in the full
// population, independent of the active filters.
type DashboardFacets struct {
	Cities          []string `json:"cities"`
	Occupations     []string `json:"occupations"`
	AgeBands        []string `json:"ageBands"`
	YearsExperience []int    `json:"yearsExperience"`
}

// DashboardWarnings flags cohorts too small for reliable aggregates.
type DashboardWarnings struct {
	CohortSmall      bool `json:"cohortSmall"`
	LeaderboardSmall bool `json:"leaderboardSmall"`
}

// DashboardService builds dashboard payloads: cache check, snapshot load,
// in-memory filtering, aggregation, cache write.
type DashboardService struct {
	provider       *SnapshotProvider
	repo           PopulationFetcher
	cache          *storage.SnapshotCache
	minCohortSize  int
	leaderboardMin int
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(provider *SnapshotProvider, repo PopulationFetcher, cache *storage.SnapshotCache, minCohortSize, leaderboardMin int) *DashboardService {
	return &DashboardService{
		provider:       provider,
		repo:           repo,
		cache:          cache,
		minCohortSize:  minCohortSize,
		leaderboardMin: leaderboardMin,
	}
}

// GetDashboard returns the dashboard payload for a filter set. Identical
// filter sets share one cache entry regardless of parameter order. A nil
// filters value means the unfiltered dashboard.
func (s *DashboardService) GetDashboard(ctx context.Context, filters *types.DashboardFilters) (*DashboardPayload, error) {
	if filters == nil {
		filters = &types.DashboardFilters{}
	}
	cacheKey := storage.DashboardKey(filters.Fingerprint())

	var cached DashboardPayload
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	population := s.provider.Population(ctx)

	rows := population.Rows
	degraded := population.Partial

	if len(rows) == 0 && !filters.IsEmpty() {
		// Cold start with filters: query the store directly rather than
		// filtering an empty snapshot. The result bypasses the cache.
		filtered, err := s.repo.FetchFiltered(ctx, filters)
		if err != nil {
			logging.FromContext(ctx).WithError(err).Warn("filtered fallback query degraded")
			degraded = true
		}
		payload := s.build(filtered, nil, degraded)
		return payload, nil
	}

	cohort := rows
	if !filters.IsEmpty() {
		cohort = make([]*models.Submission, 0, len(rows))
		for _, row := range rows {
			if filters.Match(row) {
				cohort = append(cohort, row)
			}
		}
	}

	payload := s.build(cohort, rows, degraded)

	if !degraded {
		s.cache.SetDashboard(context.WithoutCancel(ctx), cacheKey, payload)
	}
	return payload, nil
}

// build aggregates a cohort into a payload. facetRows is the full population
// used for facet extraction; nil means facets come from the cohort itself.
func (s *DashboardService) build(cohort, facetRows []*models.Submission, degraded bool) *DashboardPayload {
	if facetRows == nil {
		facetRows = cohort
	}

	payload := &DashboardPayload{
		Cohort:         stats.SummarizeCohort(cohort),
		GlobalAverages: globalAverages(cohort),
		EMI:            emiSummary(cohort),
		Facets:         buildFacets(facetRows),
		Degraded:       degraded,
		GeneratedAt:    time.Now(),
	}

	payload.Warnings.CohortSmall = len(cohort) < s.minCohortSize
	payload.Warnings.LeaderboardSmall = len(cohort) < s.leaderboardMin

	// Leaderboards are suppressed, not omitted, below the minimum so the
	// response shape stays stable for clients.
	empty := []stats.LeaderboardEntry{}
	payload.Leaderboards = DashboardLeaderboards{
		IncomeByOccupation: empty,
		NetWorthByAgeBand:  empty,
		IncomeByCity:       empty,
		SavingsByIncome:    empty,
	}
	if !payload.Warnings.LeaderboardSmall {
		income, _ := stats.ExtractorFor(stats.MetricIncome)
		netWorth, _ := stats.ExtractorFor(stats.MetricNetWorth)
		savings, _ := stats.ExtractorFor(stats.MetricSavings)
		payload.Leaderboards = DashboardLeaderboards{
			IncomeByOccupation: stats.Leaderboard(cohort, stats.OccupationKey, income, leaderboardLimit),
			NetWorthByAgeBand:  stats.Leaderboard(cohort, stats.AgeBandKey, netWorth, leaderboardLimit),
			IncomeByCity:       stats.Leaderboard(cohort, stats.CityKey, income, leaderboardLimit),
			SavingsByIncome:    stats.Leaderboard(cohort, stats.IncomeSlabKey, savings, leaderboardLimit),
		}
	}

	return payload
}

// globalAverages computes the average of every enumerated metric over the
// cohort, keyed by metric name. Metrics absent from every record are omitted.
func globalAverages(cohort []*models.Submission) map[string]float64 {
	averages := make(map[string]float64)
	for _, metric := range stats.Metrics() {
		extract, _ := stats.ExtractorFor(metric)
		summary := stats.SummarizeMetric(cohort, extract)
		if summary.Count > 0 {
			averages[string(metric)] = summary.Average
		}
	}
	return averages
}

// emiSummary summarizes the open monthly-EMI metric over records that carry it.
func emiSummary(cohort []*models.Submission) stats.Summary {
	return stats.SummarizeMetric(cohort, func(s *models.Submission) (float64, bool) {
		return s.ExtraMetric(stats.ExtraKeyMonthlyEMI)
	})
}

// buildFacets collects the distinct filterable dimension values in the rows.
func buildFacets(rows []*models.Submission) DashboardFacets {
	cities := make(map[string]struct{})
	occupations := make(map[string]struct{})
	ageBands := make(map[string]struct{})
	experience := make(map[int]struct{})

	for _, row := range rows {
		if row.City != nil && *row.City != "" {
			cities[*row.City] = struct{}{}
		}
		if row.Occupation != nil && *row.Occupation != "" {
			occupations[*row.Occupation] = struct{}{}
		}
		if row.Age != nil {
			ageBands[stats.AgeBand(*row.Age)] = struct{}{}
		}
		if row.YearsExperience != nil {
			experience[*row.YearsExperience] = struct{}{}
		}
	}

	facets := DashboardFacets{
		Cities:          sortedKeys(cities),
		Occupations:     sortedKeys(occupations),
		AgeBands:        sortedKeys(ageBands),
		YearsExperience: sortedInts(experience),
	}
	return facets
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedInts(set map[int]struct{}) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
