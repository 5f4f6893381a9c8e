package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/streak-oracle/internal/ensemble"
	"github.com/yourusername/streak-oracle/internal/logger"
	"github.com/yourusername/streak-oracle/internal/metrics"
	"github.com/yourusername/streak-oracle/internal/models"
	"github.com/yourusername/streak-oracle/internal/repository"
)

// DefaultLedgerSize is the per-source record limit used when none is configured.
const DefaultLedgerSize = 500

// Ledger remembers issued forecasts per source so realized outcomes can be attached later.
// Only the newest MaxRecords entries of each source are kept; a repository, when set, mirrors
// every write.
type Ledger struct {
	mu         sync.RWMutex
	records    map[string][]*models.PredictionRecord
	weights    map[string]ensemble.Weights
	maxRecords int
	repo       repository.PredictionRepository
	audit      *logger.AuditLogger
	logger     *logrus.Logger
}

// NewLedger creates a ledger. repo may be nil.
func NewLedger(maxRecords int, repo repository.PredictionRepository, log *logrus.Logger) *Ledger {
	if maxRecords <= 0 {
		maxRecords = DefaultLedgerSize
	}
	if log == nil {
		log = logrus.New()
	}
	return &Ledger{
		records:    make(map[string][]*models.PredictionRecord),
		weights:    make(map[string]ensemble.Weights),
		maxRecords: maxRecords,
		repo:       repo,
		audit:      logger.NewAuditLogger(log),
		logger:     log,
	}
}

// Record stores the forecast for the event after f.LastIndex. Re-forecasting a target that is
// still open replaces the open record instead of adding another.
func (l *Ledger) Record(ctx context.Context, f *Forecast) (*models.PredictionRecord, error) {
	if f.Diagnostics.Events == 0 {
		return nil, fmt.Errorf("cannot record a forecast without history")
	}
	rec := models.NewPredictionRecord(f.Source, f.LastIndex, f.Label, f.ProbabilityA, f.Confidence)

	l.mu.Lock()
	l.weights[f.Source] = f.TunedWeights
	list := l.records[f.Source]
	if n := len(list); n > 0 && list[n-1].Index == rec.Index && !list[n-1].Settled() {
		prev := list[n-1]
		prev.Predicted = rec.Predicted
		prev.ProbabilityA = rec.ProbabilityA
		prev.Confidence = rec.Confidence
		out := *prev
		l.mu.Unlock()

		if l.repo != nil {
			if err := l.repo.UpdatePrediction(ctx, out.ID, out.Predicted, out.ProbabilityA, out.Confidence); err != nil {
				l.logger.WithError(err).WithField("record_id", out.ID).Warn("Failed to persist re-forecast")
				return &out, fmt.Errorf("failed to persist re-forecast: %w", err)
			}
		}
		return &out, nil
	}
	list = append(list, rec)
	if len(list) > l.maxRecords {
		list = append([]*models.PredictionRecord(nil), list[len(list)-l.maxRecords:]...)
	}
	l.records[f.Source] = list
	out := *rec
	l.mu.Unlock()

	l.audit.LogPredictionRecorded(rec.ID.String(), rec.Source, rec.Index, string(rec.Predicted), rec.ProbabilityA)
	if l.repo != nil {
		if err := l.repo.Create(ctx, &out); err != nil {
			l.logger.WithError(err).WithField("record_id", rec.ID).Warn("Failed to persist prediction record")
			return &out, fmt.Errorf("failed to persist prediction: %w", err)
		}
	}
	return &out, nil
}

// RecordActual settles the newest open record of source with the realized label
func (l *Ledger) RecordActual(ctx context.Context, source string, actual models.Label) (*models.PredictionRecord, error) {
	if !actual.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnresolvedLabel, actual)
	}

	l.mu.Lock()
	var target *models.PredictionRecord
	list := l.records[source]
	for i := len(list) - 1; i >= 0; i-- {
		if !list[i].Settled() {
			target = list[i]
			break
		}
	}
	if target == nil {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w for source %s", ErrNoOpenPrediction, source)
	}
	a := actual
	target.Actual = &a
	out := *target
	l.mu.Unlock()

	metrics.RecordSettlement(source, out.Hit())
	l.audit.LogActualRecorded(out.ID.String(), source, out.Index, string(out.Predicted), string(actual))
	if l.repo != nil {
		if err := l.repo.UpdateActual(ctx, out.ID, actual); err != nil {
			l.logger.WithError(err).WithField("record_id", out.ID).Warn("Failed to persist actual")
			return &out, fmt.Errorf("failed to persist actual: %w", err)
		}
	}
	return &out, nil
}

// Restore loads the newest persisted records of source into the ledger, replacing what is
// kept in memory. It returns the number of records loaded; without a repository it is a no-op.
func (l *Ledger) Restore(ctx context.Context, source string) (int, error) {
	if l.repo == nil {
		return 0, nil
	}
	recent, err := l.repo.GetRecent(ctx, source, l.maxRecords)
	if err != nil {
		return 0, fmt.Errorf("failed to restore ledger for %s: %w", source, err)
	}

	list := make([]*models.PredictionRecord, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		list = append(list, recent[i])
	}
	l.mu.Lock()
	l.records[source] = list
	l.mu.Unlock()
	return len(list), nil
}

// History returns up to limit records of source, newest first. limit <= 0 returns all.
func (l *Ledger) History(source string, limit int) []models.PredictionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	list := l.records[source]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]models.PredictionRecord, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *list[i])
	}
	return out
}

// Accuracy counts hits among the settled records of source
func (l *Ledger) Accuracy(source string) (hits, settled int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, rec := range l.records[source] {
		if !rec.Settled() {
			continue
		}
		settled++
		if rec.Hit() {
			hits++
		}
	}
	return hits, settled
}

// Weights returns the weights of the newest forecast recorded for source
func (l *Ledger) Weights(source string) (ensemble.Weights, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	w, ok := l.weights[source]
	return w, ok
}

// Len returns the number of records kept for source
func (l *Ledger) Len(source string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records[source])
}
