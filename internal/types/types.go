// Package types defines shared types used across service boundaries.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/finbench/internal/models"
)

// ServiceError represents a structured error returned by services.
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// DashboardFilters is the set of cohort filters applied to a dashboard
// request. Values are unioned within a dimension and intersected across
// dimensions.
type DashboardFilters struct {
	Cities          []string `json:"cities,omitempty"`
	Occupations     []string `json:"occupations,omitempty"`
	Ages            []int    `json:"ages,omitempty"`
	YearsExperience []int    `json:"yearsExperience,omitempty"`
}

// IsEmpty reports whether no filter is set.
func (f *DashboardFilters) IsEmpty() bool {
	return len(f.Cities) == 0 && len(f.Occupations) == 0 &&
		len(f.Ages) == 0 && len(f.YearsExperience) == 0
}

// canonical returns a copy with every dimension sorted and strings
// normalized, so that the same filter set always serializes identically.
func (f *DashboardFilters) canonical() DashboardFilters {
	c := DashboardFilters{
		Cities:          normalizeStrings(f.Cities),
		Occupations:     normalizeStrings(f.Occupations),
		Ages:            append([]int(nil), f.Ages...),
		YearsExperience: append([]int(nil), f.YearsExperience...),
	}
	sort.Ints(c.Ages)
	sort.Ints(c.YearsExperience)
	return c
}

// Fingerprint returns a canonical, order-independent hash of the filter set.
// The same filters in any order produce the same fingerprint, which keys the
// dashboard payload cache.
func (f *DashboardFilters) Fingerprint() string {
	c := f.canonical()
	data, err := json.Marshal(c)
	if err != nil {
		// DashboardFilters contains only slices of builtins; Marshal
		// cannot fail. Keep a deterministic fallback anyway.
		data = []byte(fmt.Sprintf("%v", c))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Match reports whether a submission passes the filter set.
func (f *DashboardFilters) Match(s *models.Submission) bool {
	if len(f.Cities) > 0 && !containsFold(f.Cities, s.City) {
		return false
	}
	if len(f.Occupations) > 0 && !containsFold(f.Occupations, s.Occupation) {
		return false
	}
	if len(f.Ages) > 0 && !containsInt(f.Ages, s.Age) {
		return false
	}
	if len(f.YearsExperience) > 0 && !containsInt(f.YearsExperience, s.YearsExperience) {
		return false
	}
	return true
}

func normalizeStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func containsFold(haystack []string, needle *string) bool {
	if needle == nil {
		return false
	}
	for _, v := range haystack {
		if strings.EqualFold(v, *needle) {
			return true
		}
	}
	return false
}

func containsInt(haystack []int, needle *int) bool {
	if needle == nil {
		return false
	}
	for _, v := range haystack {
		if v == *needle {
			return true
		}
	}
	return false
}
