// Package scheduler periodically refreshes sources so tuned weights stay warm and every new
// event gets an open forecast in the ledger.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/streak-oracle/internal/service"
)

// DefaultRefreshSchedule is used when the config leaves the schedule empty.
const DefaultRefreshSchedule = "@every 1m"

// Scheduler manages the refresh jobs
type Scheduler struct {
	cron            *cron.Cron
	sequences       *service.SequenceService
	predictor       *service.PredictionService
	ledger          *service.Ledger
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	jobTimeout      time.Duration
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(sequences *service.SequenceService, predictor *service.PredictionService, ledger *service.Ledger, log *logrus.Logger) *Scheduler {
	if log == nil {
		log = logrus.New()
	}
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		sequences:       sequences,
		predictor:       predictor,
		ledger:          ledger,
		logger:          log.WithField("component", "scheduler"),
		jobIDs:          make([]cron.EntryID, 0),
		jobTimeout:      2 * time.Minute,
		gracefulTimeout: 30 * time.Second,
	}
}

// RefreshSource loads source, forecasts the next event and records the forecast. A source
// that currently serves no usable record is skipped with a nil forecast.
func (s *Scheduler) RefreshSource(ctx context.Context, source string) (*service.Forecast, error) {
	events, err := s.sequences.Load(ctx, source)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		s.logger.WithField("source", source).Warn("Source returned no usable records")
		return nil, nil
	}

	f, err := s.predictor.Predict(ctx, source, events)
	if err != nil {
		return nil, fmt.Errorf("forecast failed for %s: %w", source, err)
	}
	if _, err := s.ledger.Record(ctx, f); err != nil {
		return f, fmt.Errorf("failed to record forecast for %s: %w", source, err)
	}
	return f, nil
}

// Warmup refreshes every enabled source once and returns how many failed.
func (s *Scheduler) Warmup(ctx context.Context) int {
	failed := 0
	for _, name := range s.sequences.Sources() {
		if _, err := s.sequences.Resolve(name); err != nil {
			continue
		}
		start := time.Now()
		f, err := s.RefreshSource(ctx, name)
		if err != nil {
			failed++
			s.logger.WithError(err).WithField("source", name).Warn("Warm-up refresh failed")
			continue
		}
		entry := s.logger.WithFields(logrus.Fields{
			"source":      name,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if f != nil {
			entry = entry.WithField("next_index", f.NextIndex)
		}
		entry.Info("Warm-up refresh completed")
	}
	return failed
}

// ScheduleRefresh adds a refresh job for source on the given cron expression
func (s *Scheduler) ScheduleRefresh(cronExpression, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if cronExpression == "" {
		cronExpression = DefaultRefreshSchedule
	}
	if _, err := s.sequences.Resolve(source); err != nil {
		return err
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		f, err := s.RefreshSource(ctx, source)
		if err != nil {
			s.logger.WithError(err).WithField("source", source).Error("Scheduled refresh failed")
			return
		}
		if f != nil {
			s.logger.WithFields(logrus.Fields{
				"source":     source,
				"next_index": f.NextIndex,
				"label":      f.Label,
			}).Debug("Scheduled refresh completed")
		}
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{
		"source":   source,
		"schedule": cronExpression,
	}).Info("Scheduled refresh job")
	return nil
}

// ScheduleAll adds a refresh job for every enabled source
func (s *Scheduler) ScheduleAll(cronExpression string) error {
	for _, name := range s.sequences.Sources() {
		if _, err := s.sequences.Resolve(name); err != nil {
			continue
		}
		if err := s.ScheduleRefresh(cronExpression, name); err != nil {
			return err
		}
	}
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop waits for running jobs up to the graceful timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	done := s.cron.Stop()
	s.isRunning = false
	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	var nextRun time.Time
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() && (nextRun.IsZero() || entry.Next.Before(nextRun)) {
			nextRun = entry.Next
		}
	}
	return nextRun
}

// Entries returns the scheduled cron entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		if entry := s.cron.Entry(jobID); entry.Valid() {
			entries = append(entries, entry)
		}
	}
	return entries
}
