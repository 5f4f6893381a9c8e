package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ForecastLogger provides dedicated logging for forecasting operations.
type ForecastLogger struct {
	*logrus.Entry
}

// NewForecastLogger creates a new forecast logger.
func NewForecastLogger(baseLogger *logrus.Logger) *ForecastLogger {
	return &ForecastLogger{
		Entry: baseLogger.WithField("component", "forecast"),
	}
}

// LogForecast logs a completed forecast.
func (fl *ForecastLogger) LogForecast(source string, nextIndex int64, label string, probabilityA float64, confidence float64, insufficientData bool, latency time.Duration) {
	fl.WithFields(logrus.Fields{
		"source":            source,
		"next_index":        nextIndex,
		"label":             label,
		"probability_a":     probabilityA,
		"confidence":        confidence,
		"insufficient_data": insufficientData,
		"latency_ms":        latency.Milliseconds(),
	}).Info("Forecast completed")
}

// LogTuning logs a grid search.
func (fl *ForecastLogger) LogTuning(source string, candidates int, score float64, cached bool, duration time.Duration) {
	fl.WithFields(logrus.Fields{
		"source":      source,
		"candidates":  candidates,
		"score":       score,
		"cache_hit":   cached,
		"duration_ms": duration.Milliseconds(),
	}).Debug("Weights tuned")
}

// LogBacktest logs a walk-forward run.
func (fl *ForecastLogger) LogBacktest(source string, window, trials int, accuracy *float64) {
	fields := logrus.Fields{
		"source": source,
		"window": window,
		"trials": trials,
	}
	if accuracy != nil {
		fields["accuracy"] = *accuracy
	}
	fl.WithFields(fields).Info("Backtest completed")
}

// LogDriftAlarm logs drift alarms present in a series.
func (fl *ForecastLogger) LogDriftAlarm(source string, alarms int, lastAlarmPosition int) {
	fl.WithFields(logrus.Fields{
		"source":              source,
		"alarms":              alarms,
		"last_alarm_position": lastAlarmPosition,
	}).Warn("Drift detected in label series")
}

// LogSourceFetch logs an upstream fetch.
func (fl *ForecastLogger) LogSourceFetch(source string, rawRecords, events int, duration time.Duration) {
	fl.WithFields(logrus.Fields{
		"source":      source,
		"raw_records": rawRecords,
		"events":      events,
		"dropped":     rawRecords - events,
		"duration_ms": duration.Milliseconds(),
	}).Debug("Source fetched")
}

// LogSourceError logs an upstream failure.
func (fl *ForecastLogger) LogSourceError(source string, code string, err error) {
	fl.WithFields(logrus.Fields{
		"source":     source,
		"error_code": code,
	}).WithError(err).Error("Source fetch failed")
}
