package types

import (
	"testing"

	"github.com/finbench/internal/models"
	"github.com/stretchr/testify/assert"
)

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func TestFingerprint_OrderIndependent(t *testing.T) {
	a := DashboardFilters{
		Cities:      []string{"Mumbai", "Pune"},
		Occupations: []string{"engineer"},
		Ages:        []int{30, 25},
	}
	b := DashboardFilters{
		Cities:      []string{"pune", "mumbai"},
		Occupations: []string{"Engineer"},
		Ages:        []int{25, 30},
	}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprint_DistinguishesFilterSets(t *testing.T) {
	a := DashboardFilters{Cities: []string{"mumbai"}}
	b := DashboardFilters{Cities: []string{"pune"}}
	empty := DashboardFilters{}

	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), empty.Fingerprint())
}

func TestMatch(t *testing.T) {
	sub := &models.Submission{
		City:       strPtr("Mumbai"),
		Occupation: strPtr("engineer"),
		Age:        intPtr(28),
	}

	tests := []struct {
		name    string
		filters DashboardFilters
		want    bool
	}{
		{"empty filters match everything", DashboardFilters{}, true},
		{"city match is case-insensitive", DashboardFilters{Cities: []string{"mumbai"}}, true},
		{"city mismatch", DashboardFilters{Cities: []string{"pune"}}, false},
		{"union within dimension", DashboardFilters{Cities: []string{"pune", "mumbai"}}, true},
		{"intersection across dimensions", DashboardFilters{Cities: []string{"mumbai"}, Ages: []int{40}}, false},
		{"all dimensions match", DashboardFilters{Cities: []string{"mumbai"}, Occupations: []string{"engineer"}, Ages: []int{28}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filters.Match(sub))
		})
	}
}

func TestMatch_AbsentDimensionNeverMatchesFilter(t *testing.T) {
	// A record without a city cannot satisfy a city filter.
	sub := &models.Submission{Age: intPtr(30)}
	filters := DashboardFilters{Cities: []string{"mumbai"}}

	assert.False(t, filters.Match(sub))
}
