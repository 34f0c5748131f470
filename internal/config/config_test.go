package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Stats.MinCohortSize)
	assert.Equal(t, 10, cfg.Stats.LeaderboardMin)
	assert.Equal(t, 1000, cfg.Stats.PageSize)
	assert.Equal(t, time.Hour, cfg.Cache.SnapshotTTL)
	assert.Equal(t, 24*time.Hour, cfg.Cache.DashboardTTL)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("MIN_COHORT_SIZE", "3")
	t.Setenv("LEADERBOARD_MIN", "20")
	t.Setenv("SNAPSHOT_CACHE_TTL", "30m")
	t.Setenv("STORE_PAGE_SIZE", "250")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Stats.MinCohortSize)
	assert.Equal(t, 20, cfg.Stats.LeaderboardMin)
	assert.Equal(t, 30*time.Minute, cfg.Cache.SnapshotTTL)
	assert.Equal(t, 250, cfg.Stats.PageSize)
}

func TestLoadConfig_DashboardTTLFloor(t *testing.T) {
	t.Setenv("DASHBOARD_CACHE_TTL", "5s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.Cache.DashboardTTL)
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("MIN_COHORT_SIZE", "not-a-number")
	t.Setenv("SNAPSHOT_CACHE_TTL", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Stats.MinCohortSize)
	assert.Equal(t, time.Hour, cfg.Cache.SnapshotTTL)
}
