// Package metrics provides the centralized Prometheus registry for the forecaster.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "streak_oracle"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	ForecastsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forecasts_total",
		Help:      "Total number of forecasts by source and predicted label",
	}, []string{"source", "label"})
	InsufficientDataTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "insufficient_data_total",
		Help:      "Forecasts that fell back to the frequency estimate",
	}, []string{"source"})
	AbstentionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "abstentions_total",
		Help:      "Forecasts flagged as too close to call",
	}, []string{"source"})
	DriftAlarmsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "drift_alarms_observed_total",
		Help:      "Drift alarms present in the series at forecast time",
	}, []string{"source"})
	SettledPredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "settled_predictions_total",
		Help:      "Ledger records settled against a realized label, by outcome",
	}, []string{"source", "outcome"})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of circuit breaker trips",
	})
)

// Gauge metrics
var (
	LastProbabilityA = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_probability_a",
		Help:      "Most recent combined probability of label A per source",
	}, []string{"source"})
)

// Histogram metrics
var (
	ForecastDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "forecast_duration_seconds",
		Help:      "Duration of a full forecast including tuning and backtest",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry with all metrics.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(prometheus.NewGoCollector())
		registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

		registry.MustRegister(ForecastsTotal)
		registry.MustRegister(InsufficientDataTotal)
		registry.MustRegister(AbstentionsTotal)
		registry.MustRegister(DriftAlarmsTotal)
		registry.MustRegister(SettledPredictionsTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)

		registry.MustRegister(LastProbabilityA)
		registry.MustRegister(ForecastDuration)

		// Register backtest and tuning metrics
		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(BacktestDuration)
		registry.MustRegister(BacktestAccuracy)
		registry.MustRegister(TuningDuration)
		registry.MustRegister(TuningCandidates)

		// Register source and cache metrics
		registry.MustRegister(SourceFetchesTotal)
		registry.MustRegister(SourceRecords)
		registry.MustRegister(WeightCacheRequestsTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordForecast records a forecast for source.
func RecordForecast(source, label string, probabilityA float64, insufficient, abstain bool, alarms int) {
	ForecastsTotal.WithLabelValues(source, label).Inc()
	LastProbabilityA.WithLabelValues(source).Set(probabilityA)
	if insufficient {
		InsufficientDataTotal.WithLabelValues(source).Inc()
	}
	if abstain {
		AbstentionsTotal.WithLabelValues(source).Inc()
	}
	if alarms > 0 {
		DriftAlarmsTotal.WithLabelValues(source).Add(float64(alarms))
	}
}

// RecordForecastDuration records end-to-end forecast latency.
func RecordForecastDuration(durationSeconds float64) {
	ForecastDuration.Observe(durationSeconds)
}

// RecordSettlement records a ledger record settled against the realized label.
func RecordSettlement(source string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	SettledPredictionsTotal.WithLabelValues(source, outcome).Inc()
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}
