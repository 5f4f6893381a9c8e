// Package config provides configuration management for the forecaster.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Engine    EngineConfig    `mapstructure:"engine" validate:"required"`
	Sources   []SourceConfig  `mapstructure:"sources" validate:"required,min=1,dive"`
	Cache     CacheConfig     `mapstructure:"cache" validate:"required"`
	Ledger    LedgerConfig    `mapstructure:"ledger" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Secrets   SecretsConfig   `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	LogFormat   string `mapstructure:"log_format" validate:"omitempty,oneof=json text"`
}

// EngineConfig holds the forecasting parameters
type EngineConfig struct {
	Floor             int                `mapstructure:"floor" validate:"required,gt=0"`
	MinHistory        int                `mapstructure:"min_history" validate:"required,gt=0"`
	TuningWindow      int                `mapstructure:"tuning_window" validate:"required,gt=0"`
	ReportWindow      int                `mapstructure:"report_window" validate:"required,gt=0"`
	TunerMinEvents    int                `mapstructure:"tuner_min_events" validate:"required,gt=0"`
	MaxCandidates     int                `mapstructure:"max_candidates" validate:"required,gt=1"`
	Workers           int                `mapstructure:"workers" validate:"gte=0"`
	AbstainThreshold  float64            `mapstructure:"abstain_threshold" validate:"gte=0,lt=0.5"`
	SampleSize        int                `mapstructure:"sample_size" validate:"gte=0"`
	PremiumMinRecords int                `mapstructure:"premium_min_records" validate:"required,gt=0"`
	Drift             DriftConfig        `mapstructure:"drift" validate:"required"`
	FixedWeights      map[string]float64 `mapstructure:"fixed_weights" validate:"omitempty,dive,gte=0"`
}

// DriftConfig tunes the Page-Hinkley detector
type DriftConfig struct {
	Alpha  float64 `mapstructure:"alpha" validate:"gt=0,lt=1"`
	Delta  float64 `mapstructure:"delta" validate:"gte=0"`
	Lambda float64 `mapstructure:"lambda" validate:"gt=0"`
}

// SourceConfig represents one upstream sequence feed
type SourceConfig struct {
	Name               string  `mapstructure:"name" validate:"required"`
	Type               string  `mapstructure:"type" validate:"required,oneof=http file"`
	Enabled            bool    `mapstructure:"enabled"`
	URL                string  `mapstructure:"url" validate:"omitempty,url"`
	Path               string  `mapstructure:"path" validate:"required_if=Type file"`
	APIToken           string  `mapstructure:"api_token"`
	TimeoutSeconds     int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	RetryAttempts      int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" validate:"gte=0"`
	Burst              int     `mapstructure:"burst" validate:"gte=0"`
}

// CacheConfig controls the tuned-weight cache
type CacheConfig struct {
	WeightTTLSeconds       int `mapstructure:"weight_ttl_seconds" validate:"required,gt=0"`
	CleanupIntervalSeconds int `mapstructure:"cleanup_interval_seconds" validate:"required,gt=0"`
}

// LedgerConfig controls the prediction history
type LedgerConfig struct {
	MaxRecords int  `mapstructure:"max_records" validate:"required,gt=0"`
	Persist    bool `mapstructure:"persist"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required_if=Enabled true"`
	User               string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"gte=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`
}

// ServerConfig represents the HTTP API configuration
type ServerConfig struct {
	Address             string `mapstructure:"address" validate:"required"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds" validate:"gte=0"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds" validate:"gte=0"`
	HealthPort          int    `mapstructure:"health_port" validate:"omitempty,min=1,max=65535"`
}

// SchedulerConfig represents background job scheduling
type SchedulerConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	RefreshSchedule string `mapstructure:"refresh_schedule" validate:"omitempty,cronspec"`
	WarmupOnStart   bool   `mapstructure:"warmup_on_start"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// SecretsConfig points at the optional AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region" validate:"required_if=Enabled true"`
	SecretName string `mapstructure:"secret_name" validate:"required_if=Enabled true"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Source returns the source configuration with the given name.
func (c *Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// WeightTTL returns the tuned-weight cache TTL.
func (c CacheConfig) WeightTTL() time.Duration {
	return time.Duration(c.WeightTTLSeconds) * time.Second
}

// CleanupInterval returns the cache janitor interval.
func (c CacheConfig) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSeconds) * time.Second
}

// Timeout returns the per-request timeout of the source, defaulting to ten seconds.
func (s SourceConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}
