package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. STREAK_ORACLE_ENGINE_FLOOR.
	EnvPrefix = "STREAK_ORACLE"
	// DefaultPath is used when no config path is given.
	DefaultPath = "config/config.yaml"
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// readExpanded reads the YAML file, expands ${VAR} placeholders and feeds it to v.
func readExpanded(v *viper.Viper, data []byte) error {
	expanded := os.ExpandEnv(string(data))
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := readExpanded(v, data); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error: defaults and environment variables are used instead.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultPath
	}

	v := newViper()
	SetDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := readExpanded(v, data); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = []SourceConfig{defaultSource()}
	}
	return cfg, nil
}

// SetDefaults registers the default value of every optional key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "streak-oracle")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("engine.floor", 8)
	v.SetDefault("engine.min_history", 8)
	v.SetDefault("engine.tuning_window", 250)
	v.SetDefault("engine.report_window", 200)
	v.SetDefault("engine.tuner_min_events", 30)
	v.SetDefault("engine.max_candidates", 360)
	v.SetDefault("engine.workers", 0)
	v.SetDefault("engine.abstain_threshold", 0.04)
	v.SetDefault("engine.sample_size", 20)
	v.SetDefault("engine.premium_min_records", 40)
	v.SetDefault("engine.drift.alpha", 0.995)
	v.SetDefault("engine.drift.delta", 0.01)
	v.SetDefault("engine.drift.lambda", 6.0)

	v.SetDefault("cache.weight_ttl_seconds", 300)
	v.SetDefault("cache.cleanup_interval_seconds", 600)
	v.SetDefault("ledger.max_records", 500)
	v.SetDefault("ledger.persist", false)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 60)
	v.SetDefault("server.health_port", 8081)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.refresh_schedule", "@every 1m")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func defaultSource() SourceConfig {
	return SourceConfig{
		Name:               "default",
		Type:               "file",
		Enabled:            true,
		Path:               "data/history.json",
		RateLimitPerSecond: 2,
		Burst:              4,
		RetryAttempts:      3,
	}
}
