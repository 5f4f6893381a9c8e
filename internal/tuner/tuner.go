// Package tuner searches the weight grid for the vector with the best walk-forward accuracy.
package tuner

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/streak-oracle/internal/backtest"
	"github.com/yourusername/streak-oracle/internal/drift"
	"github.com/yourusername/streak-oracle/internal/ensemble"
	"github.com/yourusername/streak-oracle/internal/models"
)

const (
	// MinEvents is the shortest sequence worth tuning on.
	MinEvents = 30
	// DefaultWindow is the number of trailing events candidates are scored over.
	DefaultWindow = 250
	// sumPenalty discourages vectors far from unit sum among otherwise equal candidates.
	sumPenalty = 1e-4
	// scoreNoTrials is assigned when a window holds no trials.
	scoreNoTrials = -1.0
)

// Config controls a tuning run.
type Config struct {
	MinEvents int
	Window    int
	Workers   int
	Grid      Grid
	Drift     drift.Params
}

// DefaultConfig returns the settings used by the prediction service.
func DefaultConfig() Config {
	return Config{
		MinEvents: MinEvents,
		Window:    DefaultWindow,
		Workers:   runtime.NumCPU(),
		Grid:      DefaultGrid(),
		Drift:     drift.DefaultParams(),
	}
}

// Report describes the outcome of a tuning run.
type Report struct {
	Weights    ensemble.Weights `json:"weights"`
	Score      float64          `json:"score"`
	Accuracy   *float64         `json:"accuracy"`
	Candidates int              `json:"candidates"`
	Trials     int              `json:"trials"`
	Defaulted  bool             `json:"defaulted"`
}

// Tuner evaluates grid candidates against a walk-forward replay.
type Tuner struct {
	cfg Config
}

// New creates a tuner; zero fields in cfg take their defaults.
func New(cfg Config) *Tuner {
	def := DefaultConfig()
	if cfg.MinEvents <= 0 {
		cfg.MinEvents = def.MinEvents
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Grid.MaxCandidates <= 0 {
		cfg.Grid = def.Grid
	}
	if cfg.Drift.Lambda <= 0 {
		cfg.Drift = def.Drift
	}
	return &Tuner{cfg: cfg}
}

// Config returns the effective configuration.
func (t *Tuner) Config() Config {
	return t.cfg
}

// Score is accuracy minus a small penalty on the distance of the weight sum from 1. A nil
// accuracy scores -1.
func Score(acc *float64, w ensemble.Weights) float64 {
	if acc == nil {
		return scoreNoTrials
	}
	return *acc - sumPenalty*math.Abs(w.Sum()-1)
}

// Tune returns the best weights for events, or ensemble.Default() for short sequences.
func (t *Tuner) Tune(ctx context.Context, events []models.Event) (ensemble.Weights, error) {
	report, err := t.TuneReport(ctx, events)
	if err != nil {
		return ensemble.Weights{}, err
	}
	return report.Weights, nil
}

// TuneReport runs the search and reports the winner. Candidates are scored concurrently but
// each score lands at its candidate's index, so the winner is the same as a sequential scan:
// the highest score, ties going to the earlier candidate.
func (t *Tuner) TuneReport(ctx context.Context, events []models.Event) (Report, error) {
	if len(events) < t.cfg.MinEvents {
		return Report{Weights: ensemble.Default(), Score: scoreNoTrials, Defaulted: true}, nil
	}

	replay := backtest.NewReplay(events, backtest.Config{
		Window:     t.cfg.Window,
		MinHistory: backtest.MinHistory,
		Drift:      t.cfg.Drift,
	})

	var candidates []ensemble.Weights
	for w := range t.cfg.Grid.Candidates() {
		candidates = append(candidates, w)
	}

	scores := make([]float64, len(candidates))
	accs := make([]*float64, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.Workers)
	for i, w := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			accs[i] = replay.Accuracy(w)
			scores[i] = Score(accs[i], w)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("tuning interrupted: %w", err)
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return Report{
		Weights:    candidates[best],
		Score:      scores[best],
		Accuracy:   accs[best],
		Candidates: len(candidates),
		Trials:     replay.Trials(),
	}, nil
}

// Tune runs a default tuner without cancellation.
func Tune(events []models.Event) ensemble.Weights {
	w, err := New(DefaultConfig()).Tune(context.Background(), events)
	if err != nil {
		return ensemble.Default()
	}
	return w
}
