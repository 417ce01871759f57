package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
)

// Config holds all configuration for the adjustment service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"ADJUSTMENT_HTTP_PORT" envDefault:"8010"`

	// PostgreSQL
	PostgresHost       string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort       int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser       string        `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass       string        `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB         string        `env:"ADJUSTMENT_DB_NAME" envDefault:"adjustment_db"`
	PostgresSSL        string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	DBMaxConns         int32         `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns         int32         `env:"DB_MIN_CONNS" envDefault:"5"`
	SlowQueryThreshold time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Redis. When disabled the campaign cache is bypassed and commit locks
	// are held in-process only.
	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"true"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Adjustment engine
	CampaignCacheTTL     time.Duration `env:"CAMPAIGN_CACHE_TTL" envDefault:"30s"`
	CommitLockTTL        time.Duration `env:"COMMIT_LOCK_TTL" envDefault:"10s"`
	HousekeepingSchedule string        `env:"HOUSEKEEPING_SCHEDULE" envDefault:"@every 5m"`

	// Per-caller throttle on preview, commit and redeem. Zero disables it.
	RateLimitRPS   float64 `env:"ADJUSTMENT_RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"ADJUSTMENT_RATE_LIMIT_BURST" envDefault:"20"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load adjustment config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects configurations the service cannot start with.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresHost == "" {
		return errors.New("POSTGRES_HOST is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0 and 1, got %v", c.OTELSampleRate)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.CommitLockTTL <= 0 {
		return fmt.Errorf("COMMIT_LOCK_TTL must be positive, got %s", c.CommitLockTTL)
	}
	if c.CampaignCacheTTL < 0 {
		return fmt.Errorf("CAMPAIGN_CACHE_TTL must not be negative, got %s", c.CampaignCacheTTL)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("ADJUSTMENT_RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("ADJUSTMENT_RATE_LIMIT_BURST must be at least 1, got %d", c.RateLimitBurst)
	}
	if _, err := cron.Parse(c.HousekeepingSchedule); err != nil {
		return fmt.Errorf("invalid HOUSEKEEPING_SCHEDULE %q: %w", c.HousekeepingSchedule, err)
	}
	return nil
}
