// Package api exposes forecasts, backtests and the prediction ledger over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/streak-oracle/internal/config"
	"github.com/yourusername/streak-oracle/internal/metrics"
	"github.com/yourusername/streak-oracle/internal/service"
)

const (
	// DefaultPremiumMinRecords is the history a premium forecast needs when none is configured.
	DefaultPremiumMinRecords = 40
	// DefaultHistoryLimit is how many ledger records /history returns without a limit parameter.
	DefaultHistoryLimit = 50
)

// Config holds the HTTP settings of the API server
type Config struct {
	Address           string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	PremiumMinRecords int
	MetricsEnabled    bool
	MetricsPath       string
}

// ConfigFromApp converts the server, engine and metrics sections of the app config
func ConfigFromApp(cfg *config.Config) Config {
	return Config{
		Address:           cfg.Server.Address,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		PremiumMinRecords: cfg.Engine.PremiumMinRecords,
		MetricsEnabled:    cfg.Metrics.Enabled,
		MetricsPath:       cfg.Metrics.Path,
	}
}

// Server serves the forecasting API
type Server struct {
	cfg       Config
	sequences *service.SequenceService
	predictor *service.PredictionService
	ledger    *service.Ledger
	logger    *logrus.Entry
	server    *http.Server
}

// NewServer wires the API over the given services
func NewServer(cfg Config, sequences *service.SequenceService, predictor *service.PredictionService, ledger *service.Ledger, log *logrus.Logger) *Server {
	if cfg.Address == "" {
		cfg.Address = ":8080"
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		// tuning a fresh snapshot can take a while
		cfg.WriteTimeout = 60 * time.Second
	}
	if cfg.PremiumMinRecords <= 0 {
		cfg.PremiumMinRecords = DefaultPremiumMinRecords
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if log == nil {
		log = logrus.New()
	}
	return &Server{
		cfg:       cfg,
		sequences: sequences,
		predictor: predictor,
		ledger:    ledger,
		logger:    log.WithField("component", "api"),
	}
}

// Handler returns the routed handler, wrapped with request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/predict", s.handlePredict)
	mux.HandleFunc("GET /api/v1/premium", s.handlePremium)
	mux.HandleFunc("GET /api/v1/backtest", s.handleBacktest)
	mux.HandleFunc("GET /api/v1/history", s.handleHistory)
	mux.HandleFunc("POST /api/v1/actual", s.handleActual)
	if s.cfg.MetricsEnabled {
		mux.Handle("GET "+s.cfg.MetricsPath, metrics.Handler())
	}
	mux.HandleFunc("GET /{$}", s.handleRoot)
	return s.logRequests(mux)
}

// Start listens in the background until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.WithField("address", s.cfg.Address).Info("API server starting")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("API server error")
		}
	}()

	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			s.logger.WithError(err).Warn("API server shutdown failed")
		}
	}()
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("API server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("Request served")
	})
}
