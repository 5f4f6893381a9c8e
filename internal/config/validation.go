package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/yourusername/streak-oracle/internal/expert"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	v.RegisterValidation("environment", validateEnvironment)
	v.RegisterValidation("loglevel", validateLogLevel)
	v.RegisterValidation("cronspec", validateCronSpec)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateCronSpec accepts standard five-field cron expressions and descriptors like @every 1m
func validateCronSpec(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	engine := cfg.Engine
	if engine.ReportWindow > engine.TuningWindow {
		return fmt.Errorf("engine report_window (%d) cannot exceed tuning_window (%d)", engine.ReportWindow, engine.TuningWindow)
	}
	if engine.Floor > engine.TunerMinEvents {
		return fmt.Errorf("engine floor (%d) cannot exceed tuner_min_events (%d)", engine.Floor, engine.TunerMinEvents)
	}
	if engine.MinHistory > engine.Floor {
		return fmt.Errorf("engine min_history (%d) cannot exceed floor (%d)", engine.MinHistory, engine.Floor)
	}
	if len(engine.FixedWeights) > 0 {
		sum := 0.0
		for name, w := range engine.FixedWeights {
			if _, err := expert.ParseID(name); err != nil {
				return fmt.Errorf("engine fixed_weights: %w", err)
			}
			sum += w
		}
		if sum <= 0 {
			return fmt.Errorf("engine fixed_weights must not all be zero")
		}
	}

	seen := make(map[string]bool, len(cfg.Sources))
	for _, s := range cfg.Sources {
		if seen[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		seen[s.Name] = true
		if s.Type == "http" && s.URL == "" {
			return fmt.Errorf("source %q: url is required for http sources", s.Name)
		}
	}

	if cfg.Database.Enabled && cfg.Database.Port == 0 {
		return fmt.Errorf("database port is required when the database is enabled")
	}
	if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections && cfg.Database.MaxConnections > 0 {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}
	if cfg.Ledger.Persist && !cfg.Database.Enabled {
		return fmt.Errorf("ledger persistence requires the database to be enabled")
	}
	if cfg.Scheduler.Enabled && cfg.Scheduler.RefreshSchedule == "" {
		return fmt.Errorf("scheduler refresh_schedule is required when the scheduler is enabled")
	}

	return ValidateEnvironment(cfg)
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.Namespace()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required", "required_if":
			errMsg.WriteString(fmt.Sprintf("- Field '%s' is required\n", field))
		case "url":
			errMsg.WriteString(fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value))
		case "min", "max":
			errMsg.WriteString(fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag))
		case "gt", "gte", "lt", "lte":
			errMsg.WriteString(fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag))
		case "environment":
			errMsg.WriteString(fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field))
		case "loglevel":
			errMsg.WriteString(fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field))
		case "cronspec":
			errMsg.WriteString(fmt.Sprintf("- Field '%s' is not a valid cron expression: '%v'\n", field, value))
		case "oneof":
			errMsg.WriteString(fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value))
		default:
			errMsg.WriteString(fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag))
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg.String())
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if !cfg.IsProduction() {
		return nil
	}
	if cfg.Database.Enabled && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires database SSL mode to be 'require' or 'verify-full'")
	}
	if cfg.App.LogLevel == "debug" {
		return fmt.Errorf("debug logging should not be enabled in production")
	}
	return nil
}
