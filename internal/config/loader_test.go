package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqinsight/aqinsight/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 1.0, cfg.Resolver.CacheRadiusDeg)
	assert.Equal(t, time.Duration(0), cfg.Resolver.CacheWindow)
	assert.Equal(t, 8*time.Second, cfg.Resolver.StepTimeout)
	assert.Equal(t, 50, cfg.Resolver.FallbackAQI)
	assert.Equal(t, 6.0, cfg.Grid.MinLat)
	assert.Equal(t, 38.0, cfg.Grid.MaxLat)
	assert.Equal(t, 68.0, cfg.Grid.MinLon)
	assert.Equal(t, 98.0, cfg.Grid.MaxLon)
	assert.Equal(t, 1.0, cfg.Grid.Step)
	assert.Equal(t, 12*time.Hour, cfg.Grid.Interval)
	assert.True(t, cfg.Grid.RunOnStart)
	assert.Equal(t, 8, cfg.Heatmap.ProbeConcurrency)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("OWM_API_KEY", "abc123")
	t.Setenv("RESOLVER_CACHE_WINDOW", "24h")
	t.Setenv("RESOLVER_FALLBACK_AQI", "75")
	t.Setenv("GRID_STEP", "0.5")
	t.Setenv("DB_HOST", "db.internal")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "abc123", cfg.Provider.OWMAPIKey)
	assert.Equal(t, 24*time.Hour, cfg.Resolver.CacheWindow)
	assert.Equal(t, 75, cfg.Resolver.FallbackAQI)
	assert.Equal(t, 0.5, cfg.Grid.Step)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}

func TestLoad_DotEnvFile(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	// Register for cleanup; godotenv only sets variables that are unset.
	t.Setenv("HEATMAP_PROBE_CONCURRENCY", "")
	require.NoError(t, os.Unsetenv("HEATMAP_PROBE_CONCURRENCY"))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HEATMAP_PROBE_CONCURRENCY=3\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Heatmap.ProbeConcurrency)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown environment", "APP_ENV", "qa"},
		{"fallback above scale", "RESOLVER_FALLBACK_AQI", "600"},
		{"inverted grid", "GRID_MAX_LAT", "2"},
		{"zero grid step", "GRID_STEP", "0"},
		{"bad log level", "LOG_LEVEL", "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "development")
			t.Setenv(tt.key, tt.value)

			_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)

			var verrs validator.ValidationErrors
			assert.ErrorAs(t, err, &verrs)
		})
	}
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("GRID_INTERVAL", "twelve hours")

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoad_ProductionRequiresAPIKey(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("OWM_API_KEY", "")

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, config.ErrMissingAPIKey)
}
