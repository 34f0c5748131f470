// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/finbench/internal/logging"
	"github.com/finbench/internal/service"
	"github.com/finbench/internal/types"
)

// Service interfaces for dependency injection and testing

// DashboardServiceInterface defines the interface for dashboard operations
type DashboardServiceInterface interface {
	GetDashboard(ctx context.Context, filters *types.DashboardFilters) (*service.DashboardPayload, error)
}

// RankingServiceInterface defines the interface for ranking operations
type RankingServiceInterface interface {
	Rank(ctx context.Context, req service.RankRequest) (*service.RankResult, error)
}

// InvalidatorInterface defines the interface for cache invalidation
type InvalidatorInterface interface {
	InvalidateAll(ctx context.Context) error
	Trigger()
}

// HealthChecker reports reachability of a backing dependency.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP API server.
type Server struct {
	router      *mux.Router
	httpServer  *http.Server
	dashboards  DashboardServiceInterface
	rankings    RankingServiceInterface
	invalidator InvalidatorInterface
	store       HealthChecker
	cache       HealthChecker
	config      *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	dashboards DashboardServiceInterface,
	rankings RankingServiceInterface,
	invalidator InvalidatorInterface,
	store HealthChecker,
	cache HealthChecker,
) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		dashboards:  dashboards,
		rankings:    rankings,
		invalidator: invalidator,
		store:       store,
		cache:       cache,
		config:      config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)

	// Middleware order matters: recovery outermost after logging.
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/dashboard", s.handleGetDashboard).Methods("GET")
	api.HandleFunc("/rank", s.handleGetRank).Methods("GET")
	api.HandleFunc("/metrics", s.handleListMetrics).Methods("GET")

	// Internal endpoints used by the write path, not rate limited per client.
	internal := s.router.PathPrefix("/internal").Subrouter()
	internal.HandleFunc("/submissions", s.handleSubmissionNotice).Methods("POST")
	internal.HandleFunc("/cache/invalidate", s.handleInvalidate).Methods("POST")
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.WithField("addr", s.httpServer.Addr).Info("starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the configured router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
