package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/streak-oracle/internal/datasource"
	"github.com/yourusername/streak-oracle/internal/logger"
	"github.com/yourusername/streak-oracle/internal/metrics"
	"github.com/yourusername/streak-oracle/internal/models"
)

// SequenceService fetches and normalizes the history of named sources. Every call returns a
// fresh snapshot; nothing is retained between calls.
type SequenceService struct {
	sources        map[string]datasource.Source
	order          []string
	forecastLogger *logger.ForecastLogger
}

// NewSequenceService creates a service over the given sources
func NewSequenceService(sources []datasource.Source, log *logrus.Logger) *SequenceService {
	if log == nil {
		log = logrus.New()
	}
	s := &SequenceService{
		sources:        make(map[string]datasource.Source, len(sources)),
		forecastLogger: logger.NewForecastLogger(log),
	}
	for _, src := range sources {
		if _, dup := s.sources[src.Name()]; dup {
			continue
		}
		s.sources[src.Name()] = src
		s.order = append(s.order, src.Name())
	}
	return s
}

// Sources returns the source names in configuration order
func (s *SequenceService) Sources() []string {
	return append([]string(nil), s.order...)
}

// Default returns the first configured source, or "" when there is none
func (s *SequenceService) Default() string {
	if len(s.order) == 0 {
		return ""
	}
	return s.order[0]
}

// Resolve maps an empty name to the default source and checks that the source exists
func (s *SequenceService) Resolve(name string) (string, error) {
	if name == "" {
		name = s.Default()
	}
	src, ok := s.sources[name]
	if !ok || !src.IsEnabled() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return name, nil
}

// Load fetches the named source and returns its events in ascending index order
func (s *SequenceService) Load(ctx context.Context, name string) ([]models.Event, error) {
	name, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := s.sources[name].Fetch(ctx)
	if err != nil {
		code := datasource.ErrorCode(err)
		metrics.RecordSourceFetch(name, code, 0)
		s.forecastLogger.LogSourceError(name, code, err)
		return nil, fmt.Errorf("failed to fetch %s: %w", name, err)
	}

	events := datasource.Normalize(raw)
	if err := models.ValidateSequence(events); err != nil {
		metrics.RecordSourceFetch(name, datasource.ErrCodeInvalidData, 0)
		return nil, datasource.NewDataSourceError(name, datasource.ErrCodeInvalidData, "normalized sequence is invalid", err)
	}

	metrics.RecordSourceFetch(name, "success", len(events))
	s.forecastLogger.LogSourceFetch(name, len(raw), len(events), time.Since(start))
	return events, nil
}
