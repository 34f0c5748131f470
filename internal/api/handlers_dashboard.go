package api

import (
	"net/http"
	"strconv"

	"github.com/finbench/internal/types"
)

// handleGetDashboard serves the aggregated dashboard payload.
//
// Filters arrive as repeated query parameters, e.g.
// /api/dashboard?city=Bangalore&city=Mumbai&age=27. Values within a
// dimension are unioned; dimensions intersect.
func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	filters, err := parseDashboardFilters(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	payload, svcErr := s.dashboards.GetDashboard(r.Context(), filters)
	if svcErr != nil {
		respondServiceError(w, svcErr)
		return
	}

	respondJSON(w, http.StatusOK, payload)
}

// parseDashboardFilters reads filter dimensions from query parameters.
func parseDashboardFilters(r *http.Request) (*types.DashboardFilters, error) {
	q := r.URL.Query()

	filters := &types.DashboardFilters{
		Cities:      q["city"],
		Occupations: q["occupation"],
	}

	ages, err := parseIntList(q["age"], "age")
	if err != nil {
		return nil, err
	}
	filters.Ages = ages

	experience, err := parseIntList(q["yearsExperience"], "yearsExperience")
	if err != nil {
		return nil, err
	}
	filters.YearsExperience = experience

	return filters, nil
}

func parseIntList(values []string, param string) ([]int, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]int, 0, len(values))
	for _, v := range values {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, invalidParam(param, "must be an integer")
		}
		out = append(out, n)
	}
	return out, nil
}
