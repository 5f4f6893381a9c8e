package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Backtest and tuning metrics
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backtest_runs_total",
		Help:      "Total number of walk-forward runs by source and status",
	}, []string{"source", "status"})

	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backtest_duration_seconds",
		Help:      "Duration of walk-forward runs in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	BacktestAccuracy = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backtest_accuracy",
		Help:      "Accuracy of the latest walk-forward run per source",
	}, []string{"source"})

	TuningDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tuning_duration_seconds",
		Help:      "Duration of weight grid searches in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	TuningCandidates = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tuning_candidates",
		Help:      "Number of candidates scored by the latest grid search",
	})
)

// ObserveBacktest records a walk-forward run. A nil accuracy means the window held no trials.
func ObserveBacktest(source string, d time.Duration, accuracy *float64) {
	BacktestDuration.Observe(d.Seconds())
	if accuracy == nil {
		BacktestRunsTotal.WithLabelValues(source, "empty").Inc()
		return
	}
	BacktestRunsTotal.WithLabelValues(source, "success").Inc()
	BacktestAccuracy.WithLabelValues(source).Set(*accuracy)
}

// ObserveTuning records a grid search.
func ObserveTuning(d time.Duration, candidates int) {
	TuningDuration.Observe(d.Seconds())
	TuningCandidates.Set(float64(candidates))
}
