package service

import (
	"context"
	"sort"
	"strings"
	"time"

	apperrors "github.com/finbench/internal/errors"
	"github.com/finbench/internal/models"
	"github.com/finbench/internal/stats"
)

// RankRequest asks where a value stands within the population for one
// metric. Slice dimensions are optional; empty means not requested.
type RankRequest struct {
	Metric     string
	Value      float64
	City       string
	Occupation string
	AgeBand    string
	Region     string
}

// SliceStanding is the standing within one population slice. Percentile is
// nil when the slice is empty, meaning rank unavailable rather than zero.
type SliceStanding struct {
	Dimension  string   `json:"dimension"`
	Label      string   `json:"label"`
	Percentile *float64 `json:"percentile"`
	SampleSize int      `json:"sampleSize"`
}

// RankResult is the computed standing for a rank request.
type RankResult struct {
	Metric      string          `json:"metric"`
	Value       float64         `json:"value"`
	Percentile  float64         `json:"percentile"`
	SampleSize  int             `json:"sampleSize"`
	Slices      []SliceStanding `json:"slices,omitempty"`
	Degraded    bool            `json:"degraded,omitempty"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// RankingService computes percentile standings against metric snapshots.
type RankingService struct {
	provider *SnapshotProvider
}

// NewRankingService creates a ranking service.
func NewRankingService(provider *SnapshotProvider) *RankingService {
	return &RankingService{provider: provider}
}

// Rank computes the global standing of req.Value for req.Metric, plus a
// standing per requested slice. Unknown metric names are rejected before any
// snapshot work.
func (s *RankingService) Rank(ctx context.Context, req RankRequest) (*RankResult, error) {
	metric, err := stats.ParseMetric(req.Metric)
	if err != nil {
		return nil, apperrors.NewInvalidMetricError(req.Metric)
	}
	extract, _ := stats.ExtractorFor(metric)

	snap := s.provider.Metric(ctx, metric)

	result := &RankResult{
		Metric:      string(metric),
		Value:       req.Value,
		Percentile:  stats.Standing(snap.Sorted, req.Value),
		SampleSize:  len(snap.Sorted),
		Degraded:    snap.Partial,
		GeneratedAt: time.Now(),
	}

	for _, slice := range []struct {
		dimension string
		label     string
		match     func(*models.Submission) bool
	}{
		{"city", req.City, func(r *models.Submission) bool {
			return r.City != nil && strings.EqualFold(*r.City, req.City)
		}},
		{"occupation", req.Occupation, func(r *models.Submission) bool {
			return r.Occupation != nil && strings.EqualFold(*r.Occupation, req.Occupation)
		}},
		{"ageBand", req.AgeBand, func(r *models.Submission) bool {
			return r.Age != nil && stats.AgeBand(*r.Age) == req.AgeBand
		}},
		{"region", req.Region, func(r *models.Submission) bool {
			return r.Region != nil && strings.EqualFold(*r.Region, req.Region)
		}},
	} {
		if slice.label == "" {
			continue
		}
		result.Slices = append(result.Slices, sliceStanding(snap.Rows, extract, slice.dimension, slice.label, slice.match, req.Value))
	}

	return result, nil
}

// sliceStanding filters the backing rows, extracts the metric, and computes
// the standing within that slice. An empty slice yields a nil percentile.
func sliceStanding(rows []*models.Submission, extract stats.Extractor, dimension, label string, match func(*models.Submission) bool, value float64) SliceStanding {
	var values []float64
	for _, row := range rows {
		if !match(row) {
			continue
		}
		if v, ok := extract(row); ok {
			values = append(values, v)
		}
	}

	standing := SliceStanding{Dimension: dimension, Label: label, SampleSize: len(values)}
	if len(values) == 0 {
		return standing
	}

	sort.Float64s(values)
	p := stats.Standing(values, value)
	standing.Percentile = &p
	return standing
}
