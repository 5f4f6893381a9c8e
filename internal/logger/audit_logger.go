package logger

import (
	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogPredictionRecorded logs a forecast stored in the ledger.
func (al *AuditLogger) LogPredictionRecorded(recordID, source string, targetIndex int64, predicted string, probabilityA float64) {
	al.WithFields(logrus.Fields{
		"record_id":     recordID,
		"source":        source,
		"target_index":  targetIndex,
		"predicted":     predicted,
		"probability_a": probabilityA,
	}).Info("Prediction recorded")
}

// LogActualRecorded logs a ledger record settled against the realized label.
func (al *AuditLogger) LogActualRecorded(recordID, source string, targetIndex int64, predicted, actual string) {
	al.WithFields(logrus.Fields{
		"record_id":    recordID,
		"source":       source,
		"target_index": targetIndex,
		"predicted":    predicted,
		"actual":       actual,
		"hit":          predicted == actual,
	}).Info("Actual outcome recorded")
}

// LogWeightsOverride logs that fixed weights replace tuning.
func (al *AuditLogger) LogWeightsOverride(weights map[string]float64) {
	al.WithField("weights", weights).Info("Fixed ensemble weights configured, tuning disabled")
}

// LogCircuitBreakerEvent logs circuit breaker events.
func (al *AuditLogger) LogCircuitBreakerEvent(eventType, reason string, metricsSnapshot map[string]interface{}, actionTaken string) {
	al.WithFields(logrus.Fields{
		"event_type":       eventType,
		"reason":           reason,
		"metrics_snapshot": metricsSnapshot,
		"action_taken":     actionTaken,
	}).Warn("Circuit breaker event recorded")
}
