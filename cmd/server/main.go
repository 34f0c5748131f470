// Package main provides the API server entry point for the financial
// benchmark service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finbench/internal/api"
	"github.com/finbench/internal/config"
	"github.com/finbench/internal/logging"
	"github.com/finbench/internal/service"
	"github.com/finbench/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.WithError(err).Fatal("Failed to load configuration")
	}

	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	logger.Info("Connecting to databases...")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	// Initialize repositories and the snapshot cache
	submissionRepo := storage.NewSubmissionRepository(postgres, cfg.Stats.PageSize)
	snapshotCache := storage.NewSnapshotCache(redis, cfg.Cache.SnapshotTTL, cfg.Cache.DashboardTTL)

	// Initialize services
	logger.Info("Initializing services...")

	snapshotProvider := service.NewSnapshotProvider(snapshotCache, submissionRepo)
	dashboardService := service.NewDashboardService(
		snapshotProvider,
		submissionRepo,
		snapshotCache,
		cfg.Stats.MinCohortSize,
		cfg.Stats.LeaderboardMin,
	)
	rankingService := service.NewRankingService(snapshotProvider)
	invalidator := service.NewInvalidator(snapshotCache)

	logger.Info("Services initialized")

	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RateLimitRPS:    cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:  cfg.RateLimit.Burst,
	}

	server := api.NewServer(serverConfig, dashboardService, rankingService, invalidator, postgres, snapshotCache)

	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
