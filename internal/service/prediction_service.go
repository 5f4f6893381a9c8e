// Package service orchestrates tuning, blending and backtesting into forecasts, and keeps the
// collaborator state that outlives a request: the tuned-weight cache and the prediction ledger.
package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/streak-oracle/internal/backtest"
	"github.com/yourusername/streak-oracle/internal/config"
	"github.com/yourusername/streak-oracle/internal/drift"
	"github.com/yourusername/streak-oracle/internal/ensemble"
	"github.com/yourusername/streak-oracle/internal/expert"
	"github.com/yourusername/streak-oracle/internal/features"
	"github.com/yourusername/streak-oracle/internal/logger"
	"github.com/yourusername/streak-oracle/internal/metrics"
	"github.com/yourusername/streak-oracle/internal/models"
	"github.com/yourusername/streak-oracle/internal/tuner"
)

const (
	// DefaultFloor is the shortest sequence that gets the full ensemble.
	DefaultFloor = 8
	// DefaultAbstainThreshold flags forecasts this close to 0.5.
	DefaultAbstainThreshold = 0.04
	// majorityWindow is the tail used to break an exactly neutral forecast.
	majorityWindow = 10
	// neutralEpsilon is the distance from 0.5 treated as an exact tie.
	neutralEpsilon = 1e-9
	// recentAlarmSpan is how close to the end of the series an alarm must be to get logged.
	recentAlarmSpan = 10
)

// Risk levels derived from the binary entropy of the forecast.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// WeightSource says where the weights of a forecast came from.
type WeightSource string

const (
	WeightsFixed    WeightSource = "fixed"
	WeightsCached   WeightSource = "cached"
	WeightsTuned    WeightSource = "tuned"
	WeightsDefault  WeightSource = "default"
	WeightsFallback WeightSource = "none"
)

// Config controls the prediction service
type Config struct {
	Floor            int
	AbstainThreshold float64
	Backtest         backtest.Config
	Tuner            tuner.Config
	FixedWeights     *ensemble.Weights
}

// DefaultConfig returns the service defaults
func DefaultConfig() Config {
	return Config{
		Floor:            DefaultFloor,
		AbstainThreshold: DefaultAbstainThreshold,
		Backtest:         backtest.DefaultConfig(),
		Tuner:            tuner.DefaultConfig(),
	}
}

// ConfigFromApp converts the engine section of the application config
func ConfigFromApp(cfg *config.Config) (Config, error) {
	engine := cfg.Engine
	bt, err := backtest.FromConfig(&engine)
	if err != nil {
		return Config{}, fmt.Errorf("invalid backtest settings: %w", err)
	}

	grid := tuner.DefaultGrid()
	if engine.MaxCandidates > 0 {
		grid.MaxCandidates = engine.MaxCandidates
	}
	out := Config{
		Floor:            engine.Floor,
		AbstainThreshold: engine.AbstainThreshold,
		Backtest:         bt,
		Tuner: tuner.Config{
			MinEvents: engine.TunerMinEvents,
			Window:    engine.TuningWindow,
			Workers:   engine.Workers,
			Grid:      grid,
			Drift:     bt.Drift,
		},
	}
	if len(engine.FixedWeights) > 0 {
		w, err := ensemble.FromMap(engine.FixedWeights)
		if err != nil {
			return Config{}, fmt.Errorf("invalid fixed weights: %w", err)
		}
		out.FixedWeights = &w
	}
	return out, nil
}

// Diagnostics explains how a forecast was produced
type Diagnostics struct {
	InsufficientData bool         `json:"insufficient_data"`
	Abstain          bool         `json:"abstain"`
	NeutralTieBreak  bool         `json:"neutral_tie_break"`
	Risk             string       `json:"risk"`
	DriftAlarms      int          `json:"drift_alarms"`
	WeightSource     WeightSource `json:"weight_source"`
	Events           int          `json:"events"`
}

// Forecast is the service's answer for the event following the supplied sequence
type Forecast struct {
	Source          string             `json:"source"`
	ProbabilityA    float64            `json:"probability_a"`
	Label           models.Label       `json:"label"`
	Confidence      float64            `json:"confidence"`
	Accuracy        *float64           `json:"accuracy"`
	Trials          int                `json:"trials"`
	Regime          models.Regime      `json:"regime"`
	TunedWeights    ensemble.Weights   `json:"tuned_weights"`
	ExpertBreakdown map[string]float64 `json:"expert_breakdown"`
	ExpertWeights   map[string]float64 `json:"expert_weights,omitempty"`
	Rationales      map[string]string  `json:"rationales,omitempty"`
	LastIndex       int64              `json:"last_index"`
	NextIndex       int64              `json:"next_index"`
	Diagnostics     Diagnostics        `json:"diagnostics"`
}

// PredictionService produces forecasts from sequence snapshots. It holds no sequence state;
// callers pass the full sequence on every call.
type PredictionService struct {
	cfg            Config
	tuner          *tuner.Tuner
	engine         *backtest.Engine
	cache          *WeightCache
	logger         *logrus.Logger
	forecastLogger *logger.ForecastLogger
}

// NewPredictionService creates a service. cache may be nil to re-tune on every call.
func NewPredictionService(cfg Config, cache *WeightCache, log *logrus.Logger) (*PredictionService, error) {
	if cfg.Floor <= 0 {
		cfg.Floor = DefaultFloor
	}
	if cfg.AbstainThreshold < 0 {
		cfg.AbstainThreshold = DefaultAbstainThreshold
	}
	if log == nil {
		log = logrus.New()
	}
	engine, err := backtest.NewEngine(cfg.Backtest, log)
	if err != nil {
		return nil, err
	}
	if cfg.FixedWeights != nil {
		logger.NewAuditLogger(log).LogWeightsOverride(cfg.FixedWeights.Map())
	}
	return &PredictionService{
		cfg:            cfg,
		tuner:          tuner.New(cfg.Tuner),
		engine:         engine,
		cache:          cache,
		logger:         log,
		forecastLogger: logger.NewForecastLogger(log),
	}, nil
}

// Config returns the effective configuration
func (s *PredictionService) Config() Config {
	return s.cfg
}

// Predict forecasts the label of the event that follows events. The input is never modified.
func (s *PredictionService) Predict(ctx context.Context, source string, events []models.Event) (*Forecast, error) {
	start := time.Now()
	events = models.CloneEvents(events)

	var (
		f   *Forecast
		err error
	)
	if len(events) < s.cfg.Floor {
		f = s.fallback(source, events)
	} else {
		f, err = s.ensembleForecast(ctx, source, events)
		if err != nil {
			return nil, err
		}
	}

	latency := time.Since(start)
	s.forecastLogger.LogForecast(source, f.NextIndex, string(f.Label), f.ProbabilityA, f.Confidence, f.Diagnostics.InsufficientData, latency)
	metrics.RecordForecast(source, string(f.Label), f.ProbabilityA, f.Diagnostics.InsufficientData, f.Diagnostics.Abstain, f.Diagnostics.DriftAlarms)
	metrics.RecordForecastDuration(latency.Seconds())
	return f, nil
}

// fallback answers short sequences with the plain A frequency of the whole sequence.
func (s *PredictionService) fallback(source string, events []models.Event) *Forecast {
	p := features.RecentFrequency(events, len(events))
	f := s.newForecast(source, events, p)
	f.TunedWeights = ensemble.Default()
	f.Diagnostics.InsufficientData = true
	f.Diagnostics.WeightSource = WeightsFallback
	return f
}

func (s *PredictionService) ensembleForecast(ctx context.Context, source string, events []models.Event) (*Forecast, error) {
	weights, origin, err := s.Weights(ctx, source, events)
	if err != nil {
		return nil, err
	}

	outs := expert.EvaluatePrefix(events)
	alarms := s.cfg.Backtest.Drift.Detect(events)
	p := ensemble.Combine(outs, weights, alarms.AlarmCount)

	res, err := s.engine.Run(ctx, source, events, weights)
	if err != nil {
		return nil, fmt.Errorf("backtest failed: %w", err)
	}

	breakdown := ensemble.NewBreakdown(outs, weights)
	f := s.newForecast(source, events, p)
	f.Accuracy = res.Accuracy
	f.Trials = res.Trials
	f.TunedWeights = weights
	f.ExpertBreakdown = breakdown.Probabilities
	f.ExpertWeights = breakdown.Weights
	f.Rationales = ensemble.Rationales(outs)
	f.Diagnostics.DriftAlarms = alarms.AlarmCount
	f.Diagnostics.WeightSource = origin

	if n := len(alarms.AlarmIndices); n > 0 {
		last := alarms.AlarmIndices[n-1]
		if last >= len(events)-recentAlarmSpan {
			s.forecastLogger.LogDriftAlarm(source, alarms.AlarmCount, last)
		}
	}
	return f, nil
}

// newForecast fills the fields every forecast shares.
func (s *PredictionService) newForecast(source string, events []models.Event, p float64) *Forecast {
	label, tieBreak := LabelFor(p, events)
	f := &Forecast{
		Source:       source,
		ProbabilityA: p,
		Label:        label,
		Confidence:   Confidence(p),
		Regime:       features.DetectRegime(events),
		Diagnostics: Diagnostics{
			Abstain:         math.Abs(p-features.Neutral) < s.cfg.AbstainThreshold,
			NeutralTieBreak: tieBreak,
			Risk:            Risk(p),
			Events:          len(events),
		},
	}
	if n := len(events); n > 0 {
		f.LastIndex = events[n-1].Index
		f.NextIndex = f.LastIndex + 1
	}
	return f
}

// Weights resolves the weight vector for a snapshot: fixed weights first, then the cache,
// then a fresh tuning run whose result is cached.
func (s *PredictionService) Weights(ctx context.Context, source string, events []models.Event) (ensemble.Weights, WeightSource, error) {
	if s.cfg.FixedWeights != nil {
		return *s.cfg.FixedWeights, WeightsFixed, nil
	}

	key := KeyFor(source, events)
	if s.cache != nil {
		if report, ok := s.cache.Get(key); ok {
			s.forecastLogger.LogTuning(source, report.Candidates, report.Score, true, 0)
			return report.Weights, WeightsCached, nil
		}
	}

	report, err := s.Tune(ctx, source, events)
	if err != nil {
		return ensemble.Weights{}, "", err
	}
	if report.Defaulted {
		return report.Weights, WeightsDefault, nil
	}
	return report.Weights, WeightsTuned, nil
}

// Tune runs the grid search on events and refreshes the cache entry of the snapshot.
func (s *PredictionService) Tune(ctx context.Context, source string, events []models.Event) (tuner.Report, error) {
	start := time.Now()
	report, err := s.tuner.TuneReport(ctx, events)
	if err != nil {
		return tuner.Report{}, err
	}
	elapsed := time.Since(start)

	if !report.Defaulted {
		metrics.ObserveTuning(elapsed, report.Candidates)
	}
	s.forecastLogger.LogTuning(source, report.Candidates, report.Score, false, elapsed)
	if s.cache != nil {
		s.cache.Set(KeyFor(source, events), report)
	}
	return report, nil
}

// Backtest scores the snapshot's weights over the newest window events. window <= 0 uses the
// configured report window.
func (s *PredictionService) Backtest(ctx context.Context, source string, events []models.Event, window int) (backtest.Result, error) {
	events = models.CloneEvents(events)
	weights, _, err := s.Weights(ctx, source, events)
	if err != nil {
		return backtest.Result{}, err
	}

	engine := s.engine.WithWindow(window)
	res, err := engine.Run(ctx, source, events, weights)
	if err != nil {
		return backtest.Result{}, err
	}
	s.forecastLogger.LogBacktest(source, engine.Config().Window, res.Trials, res.Accuracy)
	return res, nil
}

// Drift runs the detector with the configured parameters.
func (s *PredictionService) Drift(events []models.Event) drift.Result {
	return s.cfg.Backtest.Drift.Detect(events)
}

// LabelFor turns a probability into a label. An exactly neutral probability is broken by the
// majority of the last ten events, LabelA on a tie; the second result reports that case.
func LabelFor(p float64, events []models.Event) (models.Label, bool) {
	if math.Abs(p-features.Neutral) < neutralEpsilon {
		return features.MajorityLabel(events, majorityWindow), true
	}
	return models.LabelFor(p), false
}

// Confidence is the distance from 0.5 scaled to a percentage, rounded to two decimals.
func Confidence(p float64) float64 {
	return math.Round(math.Abs(p-features.Neutral)*2*100*100) / 100
}

// Risk grades a forecast by the binary entropy of p.
func Risk(p float64) string {
	h := entropy(p)
	switch {
	case h < 0.6:
		return RiskLow
	case h > 0.95:
		return RiskHigh
	default:
		return RiskMedium
	}
}

func entropy(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	return -p*math.Log2(p) - (1-p)*math.Log2(1-p)
}
