// Package errors defines the categorized error taxonomy for the benchmark
// service.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/finbench/internal/types"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryUserInput represents caller input errors (4xx)
	CategoryUserInput ErrorCategory = "user_input"
	// CategorySystem represents system errors (5xx)
	CategorySystem ErrorCategory = "system"
	// CategoryStore represents backing store errors
	CategoryStore ErrorCategory = "store"
	// CategoryCache represents cache backend errors
	CategoryCache ErrorCategory = "cache"
)

// CategorizedError represents an error with category and HTTP status code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to a ServiceError
func (e *CategorizedError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// NewInvalidMetricError rejects an unrecognized metric name. This is the one
// ranking-request error surfaced to the caller.
func NewInvalidMetricError(name string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUserInput,
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_METRIC",
		Message:    fmt.Sprintf("unknown metric: %s", name),
		Details: map[string]interface{}{
			"metric": name,
		},
	}
}

// NewInvalidParameterError creates an invalid parameter error
func NewInvalidParameterError(param string, reason string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUserInput,
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_PARAMETER",
		Message:    fmt.Sprintf("invalid parameter '%s': %s", param, reason),
		Details: map[string]interface{}{
			"parameter": param,
			"reason":    reason,
		},
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError() *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUserInput,
		StatusCode: http.StatusTooManyRequests,
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "rate limit exceeded",
	}
}

// NewStoreUnavailableError wraps a backing-store failure. Callers receive
// whatever rows were accumulated before the failure and degrade; retrying
// later is expected to recover.
func NewStoreUnavailableError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryStore,
		StatusCode: http.StatusServiceUnavailable,
		Code:       "STORE_UNAVAILABLE",
		Message:    fmt.Sprintf("record store unavailable during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewCacheError wraps a cache backend failure. Cache errors are always
// recovered locally (miss on read, no-op on write) and never surfaced to
// callers; this type exists for logs and tests.
func NewCacheError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryCache,
		StatusCode: http.StatusInternalServerError,
		Code:       "CACHE_UNAVAILABLE",
		Message:    fmt.Sprintf("cache backend error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Cause:      cause,
	}
}

// IsStoreUnavailable reports whether err is (or wraps) a store failure.
func IsStoreUnavailable(err error) bool {
	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category == CategoryStore
	}
	return false
}

// Categorize categorizes an existing error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr
	}

	var svcErr *types.ServiceError
	if errors.As(err, &svcErr) {
		return categorizeServiceError(svcErr)
	}

	return NewInternalError("unexpected error", err)
}

// categorizeServiceError categorizes a ServiceError
func categorizeServiceError(err *types.ServiceError) *CategorizedError {
	switch err.Code {
	case "INVALID_METRIC", "INVALID_PARAMETER":
		return &CategorizedError{
			Category:   CategoryUserInput,
			StatusCode: http.StatusBadRequest,
			Code:       err.Code,
			Message:    err.Message,
			Details:    err.Details,
		}
	case "STORE_UNAVAILABLE":
		return &CategorizedError{
			Category:   CategoryStore,
			StatusCode: http.StatusServiceUnavailable,
			Code:       err.Code,
			Message:    err.Message,
			Details:    err.Details,
		}
	default:
		return &CategorizedError{
			Category:   CategorySystem,
			StatusCode: http.StatusInternalServerError,
			Code:       err.Code,
			Message:    err.Message,
			Details:    err.Details,
		}
	}
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsRetryable determines if an error is retryable
func IsRetryable(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	switch catErr.Category {
	case CategoryStore, CategoryCache:
		return true
	case CategorySystem:
		return catErr.StatusCode == http.StatusServiceUnavailable ||
			catErr.StatusCode == http.StatusGatewayTimeout
	default:
		return false
	}
}

// IsUserError determines if an error is a caller error (4xx)
func IsUserError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}
	return catErr.StatusCode >= 400 && catErr.StatusCode < 500
}
