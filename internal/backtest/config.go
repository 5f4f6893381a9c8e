package backtest

import (
	"fmt"

	"github.com/yourusername/streak-oracle/internal/config"
	"github.com/yourusername/streak-oracle/internal/drift"
)

const (
	// MinHistory is the shortest prefix a trial is ever scored on.
	MinHistory = 8
	// DefaultWindow is the report window used when none is given.
	DefaultWindow = 200
	// DefaultSampleSize is how many of the newest trials a Result carries.
	DefaultSampleSize = 20
)

// Config holds walk-forward settings.
type Config struct {
	Window     int
	MinHistory int
	SampleSize int
	Drift      drift.Params
	OutputPath string
}

// DefaultConfig returns the settings used by the prediction service.
func DefaultConfig() Config {
	return Config{
		Window:     DefaultWindow,
		MinHistory: MinHistory,
		SampleSize: DefaultSampleSize,
		Drift:      drift.DefaultParams(),
	}
}

// FromConfig converts the engine section of the app config.
func FromConfig(cfg *config.EngineConfig) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("engine config is required")
	}
	bt := Config{
		Window:     cfg.ReportWindow,
		MinHistory: cfg.MinHistory,
		SampleSize: cfg.SampleSize,
		Drift: drift.Params{
			Alpha:  cfg.Drift.Alpha,
			Delta:  cfg.Drift.Delta,
			Lambda: cfg.Drift.Lambda,
		},
	}
	return bt, bt.Validate()
}

// Validate validates walk-forward parameters
func (c Config) Validate() error {
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive")
	}
	if c.MinHistory < 1 {
		return fmt.Errorf("min history must be at least 1")
	}
	if c.SampleSize < 0 {
		return fmt.Errorf("sample size cannot be negative")
	}
	if c.Drift.Lambda <= 0 || c.Drift.Alpha <= 0 || c.Drift.Alpha >= 1 {
		return fmt.Errorf("drift parameters are out of range")
	}
	return nil
}
