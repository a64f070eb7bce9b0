// Package config loads service configuration from the environment, reading
// an optional .env file first.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/nestmap/nestmap/internal/cache"
	"github.com/nestmap/nestmap/internal/database"
	"github.com/nestmap/nestmap/internal/featureflags"
	"github.com/nestmap/nestmap/internal/telemetry"
	"github.com/nestmap/nestmap/internal/worker"
)

// DevSigningKey is accepted outside production only.
const DevSigningKey = "local-dev-signing-key-change-in-production"

// Config is the complete service configuration.
type Config struct {
	Port        string `env:"APP_PORT" envDefault:"8080"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	RequireTLS  bool   `env:"REQUIRE_TLS" envDefault:"false"`

	Database  database.Config   `envPrefix:"DB_"`
	Redis     cache.RedisConfig `envPrefix:"REDIS_"`
	Telemetry telemetry.Config  `envPrefix:"OTEL_"`

	JWT        JWTConfig
	Routing    RoutingConfig
	PubSub     PubSubConfig
	Scheduling SchedulingConfig
	Refresh    worker.RefreshConfig
}

// JWTConfig holds bearer token validation settings.
type JWTConfig struct {
	SigningKey string `env:"JWT_SIGNING_KEY" envDefault:"local-dev-signing-key-change-in-production"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"nestmap"`
	Audience   string        `env:"JWT_AUDIENCE" envDefault:"nestmap-api"`
	Leeway     time.Duration `env:"JWT_LEEWAY" envDefault:"30s"`
}

// RoutingConfig holds the directions provider settings.
type RoutingConfig struct {
	APIKey   string        `env:"ORS_API_KEY"`
	BaseURL  string        `env:"ORS_BASE_URL"`
	Timeout  time.Duration `env:"ORS_TIMEOUT" envDefault:"10s"`
	CacheTTL time.Duration `env:"ROUTING_CACHE_TTL" envDefault:"30m"`
}

// Enabled reports whether a provider key is configured.
func (c RoutingConfig) Enabled() bool {
	return c.APIKey != ""
}

// PubSubConfig holds the travel refresh messaging settings.
type PubSubConfig struct {
	ProjectID      string `env:"PUBSUB_PROJECT_ID"`
	Topic          string `env:"PUBSUB_TOPIC" envDefault:"travel-refresh"`
	SubscriptionID string `env:"PUBSUB_SUBSCRIPTION" envDefault:"travel-refresh-worker"`
}

// Enabled reports whether a project is configured.
func (c PubSubConfig) Enabled() bool {
	return c.ProjectID != ""
}

// SchedulingConfig holds the fallback values of the scheduling flags.
type SchedulingConfig struct {
	TravelConflictThreshold time.Duration `env:"TRAVEL_CONFLICT_THRESHOLD" envDefault:"60m"`
	CalendarEventDuration   time.Duration `env:"CALENDAR_EVENT_DURATION" envDefault:"2h"`
	OrderTieBreak           bool          `env:"ORDER_TIEBREAK_SAME_TIME" envDefault:"false"`
	CacheTTL                time.Duration `env:"TRIP_CACHE_TTL" envDefault:"10m"`
}

// DefaultFlags returns the built-in flags with the configured scheduling
// fallbacks applied.
func (c SchedulingConfig) DefaultFlags() map[string]*featureflags.Flag {
	flags := featureflags.DefaultFlags()
	if f, ok := flags[featureflags.FlagTravelConflictThresholdMinutes]; ok && c.TravelConflictThreshold > 0 {
		f.Value = c.TravelConflictThreshold.Minutes()
	}
	if f, ok := flags[featureflags.FlagCalendarEventMinutes]; ok && c.CalendarEventDuration > 0 {
		f.Value = c.CalendarEventDuration.Minutes()
	}
	if f, ok := flags[featureflags.FlagOrderTieBreakSameTime]; ok {
		f.Value = c.OrderTieBreak
	}
	return flags
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads .env when present and parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.IsProduction() && (c.JWT.SigningKey == "" || c.JWT.SigningKey == DevSigningKey) {
		return errors.New("JWT_SIGNING_KEY must be set in production")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("OTEL_TRACES_SAMPLE_RATIO must be within [0, 1], got %v", c.Telemetry.SampleRatio)
	}
	if c.Scheduling.TravelConflictThreshold < 0 {
		return errors.New("TRAVEL_CONFLICT_THRESHOLD must not be negative")
	}
	return nil
}
