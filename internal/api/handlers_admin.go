package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/finbench/internal/logging"
)

// SubmissionNotice is posted by the write path after it accepts a new
// submission. The body is informational only; any accepted submission
// invalidates every derived snapshot.
type SubmissionNotice struct {
	SubmissionID string `json:"submissionId"`
	Source       string `json:"source,omitempty"`
}

// handleSubmissionNotice acknowledges a new submission and fires the cache
// invalidation signal without waiting for it.
func (s *Server) handleSubmissionNotice(w http.ResponseWriter, r *http.Request) {
	var notice SubmissionNotice
	if err := parseJSONBody(r, &notice); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body", nil)
		return
	}

	eventID := uuid.New().String()
	logging.WithFields(map[string]interface{}{
		"eventId":      eventID,
		"submissionId": notice.SubmissionID,
		"source":       notice.Source,
	}).Info("submission notice received, invalidating caches")

	s.invalidator.Trigger()

	respondJSON(w, http.StatusAccepted, map[string]string{
		"eventId": eventID,
		"status":  "accepted",
	})
}

// handleInvalidate synchronously evicts all cached snapshots and dashboards.
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if err := s.invalidator.InvalidateAll(r.Context()); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// handleHealth handles health check requests, reporting dependency
// reachability. A degraded dependency yields 503 but still lists per-check
// detail.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := map[string]string{}
	status := http.StatusOK

	if err := s.store.Ping(ctx); err != nil {
		checks["store"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	if err := s.cache.Ping(ctx); err != nil {
		// The service degrades without its cache; report but stay healthy.
		checks["cache"] = err.Error()
	} else {
		checks["cache"] = "ok"
	}

	respondJSON(w, status, map[string]interface{}{
		"status":  healthLabel(status),
		"service": "finbench",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"checks":  checks,
	})
}

func healthLabel(status int) string {
	if status == http.StatusOK {
		return "healthy"
	}
	return "degraded"
}
