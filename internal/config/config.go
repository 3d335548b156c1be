// Package config loads process configuration from the environment.
//
// Values resolve in order: OS environment, then a .env file in the working
// directory, then struct defaults. Invalid values fail startup.
package config

import (
	"time"
)

// Config is the top-level configuration shared by the API and worker binaries.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"development" validate:"required,oneof=development test staging production"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn error"`

	Server    ServerConfig
	Database  DatabaseConfig
	Provider  ProviderConfig
	Resolver  ResolverConfig
	Heatmap   HeatmapConfig
	Grid      GridConfig
	PubSub    PubSubConfig
	Telemetry TelemetryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"APP_PORT" default:"8080" validate:"required,numeric"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimit       int           `envconfig:"HTTP_RATE_LIMIT" default:"120" validate:"gte=0"`
	HeatmapLimit    int           `envconfig:"HTTP_HEATMAP_RATE_LIMIT" default:"30" validate:"gte=0"`
	RequireTLS      bool          `envconfig:"REQUIRE_TLS" default:"false"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `envconfig:"DB_HOST" default:"localhost" validate:"required"`
	Port            int           `envconfig:"DB_PORT" default:"5432" validate:"gte=1,lte=65535"`
	User            string        `envconfig:"DB_USER" default:"aqinsight" validate:"required"`
	Password        string        `envconfig:"DB_PASSWORD" default:"localdev"`
	Name            string        `envconfig:"DB_NAME" default:"aqinsight" validate:"required"`
	SSLMode         string        `envconfig:"DB_SSL_MODE" default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"10" validate:"gte=1"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"2" validate:"gte=0,ltefield=MaxConns"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	Migrate         bool          `envconfig:"DB_MIGRATE" default:"true"`
}

// ProviderConfig holds live provider settings.
type ProviderConfig struct {
	OWMAPIKey         string        `envconfig:"OWM_API_KEY"`
	OWMBaseURL        string        `envconfig:"OWM_BASE_URL" default:"https://api.openweathermap.org/data/2.5" validate:"required,url"`
	Timeout           time.Duration `envconfig:"OWM_TIMEOUT" default:"8s"`
	MaxRetries        uint64        `envconfig:"OWM_MAX_RETRIES" default:"2"`
	RequestsPerSecond float64       `envconfig:"OWM_REQUESTS_PER_SECOND" default:"0" validate:"gte=0"`
	CacheTTL          time.Duration `envconfig:"OWM_CACHE_TTL" default:"5m"`
}

// ResolverConfig holds resolution chain settings.
type ResolverConfig struct {
	CacheRadiusDeg float64       `envconfig:"RESOLVER_CACHE_RADIUS_DEG" default:"1.0" validate:"gt=0"`
	CacheWindow    time.Duration `envconfig:"RESOLVER_CACHE_WINDOW" default:"0s"`
	StepTimeout    time.Duration `envconfig:"RESOLVER_STEP_TIMEOUT" default:"8s"`
	PersistTimeout time.Duration `envconfig:"RESOLVER_PERSIST_TIMEOUT" default:"5s"`
	FallbackAQI    int           `envconfig:"RESOLVER_FALLBACK_AQI" default:"50" validate:"gte=0,lte=500"`
	GridMinLat     float64       `envconfig:"RESOLVER_GRID_MIN_LAT" default:"6" validate:"gte=-90,lte=90"`
	GridMaxLat     float64       `envconfig:"RESOLVER_GRID_MAX_LAT" default:"38" validate:"gte=-90,lte=90,gtefield=GridMinLat"`
	GridMinLon     float64       `envconfig:"RESOLVER_GRID_MIN_LON" default:"68" validate:"gte=-180,lte=180"`
	GridMaxLon     float64       `envconfig:"RESOLVER_GRID_MAX_LON" default:"98" validate:"gte=-180,lte=180,gtefield=GridMinLon"`
}

// HeatmapConfig holds interpolation settings.
type HeatmapConfig struct {
	ProbeConcurrency int           `envconfig:"HEATMAP_PROBE_CONCURRENCY" default:"8" validate:"gte=1,lte=121"`
	ProbeTimeout     time.Duration `envconfig:"HEATMAP_PROBE_TIMEOUT" default:"8s"`
}

// GridConfig holds regional grid refresh settings.
type GridConfig struct {
	MinLat            float64       `envconfig:"GRID_MIN_LAT" default:"6" validate:"gte=-90,lte=90"`
	MaxLat            float64       `envconfig:"GRID_MAX_LAT" default:"38" validate:"gte=-90,lte=90,gtefield=MinLat"`
	MinLon            float64       `envconfig:"GRID_MIN_LON" default:"68" validate:"gte=-180,lte=180"`
	MaxLon            float64       `envconfig:"GRID_MAX_LON" default:"98" validate:"gte=-180,lte=180,gtefield=MinLon"`
	Step              float64       `envconfig:"GRID_STEP" default:"1.0" validate:"gt=0"`
	Interval          time.Duration `envconfig:"GRID_INTERVAL" default:"12h"`
	RunOnStart        bool          `envconfig:"GRID_RUN_ON_START" default:"true"`
	Concurrency       int           `envconfig:"GRID_CONCURRENCY" default:"4" validate:"gte=1"`
	PointTimeout      time.Duration `envconfig:"GRID_POINT_TIMEOUT" default:"10s"`
	RequestsPerSecond float64       `envconfig:"GRID_REQUESTS_PER_SECOND" default:"1" validate:"gt=0"`
}

// PubSubConfig holds the optional Pub/Sub trigger settings. The trigger is
// disabled when ProjectID is empty.
type PubSubConfig struct {
	ProjectID    string `envconfig:"PUBSUB_PROJECT_ID"`
	Subscription string `envconfig:"PUBSUB_SUBSCRIPTION" default:"grid-refresh" validate:"required_with=ProjectID"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
}

// IsProduction reports whether the process runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
