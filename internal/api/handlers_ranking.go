package api

import (
	"net/http"
	"strconv"

	apperrors "github.com/finbench/internal/errors"
	"github.com/finbench/internal/service"
	"github.com/finbench/internal/stats"
)

// handleGetRank serves percentile standings, e.g.
// /api/rank?metric=income&value=1200000&city=Bangalore&ageBand=25-29.
func (s *Server) handleGetRank(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	metric := q.Get("metric")
	if metric == "" {
		respondServiceError(w, invalidParam("metric", "is required"))
		return
	}

	rawValue := q.Get("value")
	if rawValue == "" {
		respondServiceError(w, invalidParam("value", "is required"))
		return
	}
	value, err := strconv.ParseFloat(rawValue, 64)
	if err != nil {
		respondServiceError(w, invalidParam("value", "must be a number"))
		return
	}

	result, svcErr := s.rankings.Rank(r.Context(), service.RankRequest{
		Metric:     metric,
		Value:      value,
		City:       q.Get("city"),
		Occupation: q.Get("occupation"),
		AgeBand:    q.Get("ageBand"),
		Region:     q.Get("region"),
	})
	if svcErr != nil {
		respondServiceError(w, svcErr)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleListMetrics enumerates the rankable metric names.
func (s *Server) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"metrics": stats.Metrics(),
	})
}

func invalidParam(param, reason string) error {
	return apperrors.NewInvalidParameterError(param, reason)
}
