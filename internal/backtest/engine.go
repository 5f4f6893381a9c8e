package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/streak-oracle/internal/ensemble"
	"github.com/yourusername/streak-oracle/internal/metrics"
	"github.com/yourusername/streak-oracle/internal/models"
)

// Engine orchestrates walk-forward runs and reports them to logs and metrics.
type Engine struct {
	config Config
	logger *logrus.Logger
}

// NewEngine creates a new backtesting engine
func NewEngine(cfg Config, logger *logrus.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{config: cfg, logger: logger}, nil
}

// Config returns the backtest configuration
func (e *Engine) Config() Config {
	return e.config
}

// Logger returns the engine logger
func (e *Engine) Logger() *logrus.Logger {
	return e.logger
}

// WithWindow returns a copy of the engine scoring a different window.
func (e *Engine) WithWindow(window int) *Engine {
	cp := *e
	if window > 0 {
		cp.config.Window = window
	}
	return &cp
}

// Prepare evaluates the experts over the configured window.
func (e *Engine) Prepare(ctx context.Context, events []models.Event) (*Replay, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewReplay(events, e.config), nil
}

// Run scores w over the configured window of events.
func (e *Engine) Run(ctx context.Context, source string, events []models.Event, w ensemble.Weights) (Result, error) {
	start := time.Now()
	replay, err := e.Prepare(ctx, events)
	if err != nil {
		return Result{}, err
	}
	res := replay.Score(w)
	elapsed := time.Since(start)

	metrics.ObserveBacktest(source, elapsed, res.Accuracy)
	fields := logrus.Fields{
		"source":   source,
		"events":   len(events),
		"window":   e.config.Window,
		"trials":   res.Trials,
		"duration": elapsed.String(),
	}
	if res.Accuracy != nil {
		fields["accuracy"] = *res.Accuracy
	}
	e.logger.WithFields(fields).Debug("Backtest completed")
	return res, nil
}
