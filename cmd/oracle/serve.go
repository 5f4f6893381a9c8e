package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/streak-oracle/internal/api"
	"github.com/yourusername/streak-oracle/internal/database"
	"github.com/yourusername/streak-oracle/internal/health"
	"github.com/yourusername/streak-oracle/internal/repository"
	"github.com/yourusername/streak-oracle/internal/scheduler"
	"github.com/yourusername/streak-oracle/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the forecasting API with health probes and the refresh scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	appLog.WithField("version", Version).Info("streak-oracle starting")

	var (
		db   *database.DB
		repo repository.PredictionRepository
	)
	if cfg.Database.Enabled && cfg.Ledger.Persist {
		var err error
		db, err = database.Initialize(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		repos, err := repository.NewRepositories(db)
		if err != nil {
			return fmt.Errorf("failed to initialize repositories: %w", err)
		}
		repo = repos.Prediction
		appLog.Info("Prediction ledger persisted to PostgreSQL")
	} else if !cfg.IsDevelopment() {
		appLog.Warn("Prediction ledger is in memory only and will not survive a restart")
	}

	sequences, err := newSequenceService()
	if err != nil {
		return fmt.Errorf("failed to create sources: %w", err)
	}
	predictor, err := newPredictionService()
	if err != nil {
		return fmt.Errorf("failed to create prediction service: %w", err)
	}
	ledger := service.NewLedger(cfg.Ledger.MaxRecords, repo, appLog)
	for _, name := range sequences.Sources() {
		n, err := ledger.Restore(ctx, name)
		if err != nil {
			appLog.WithError(err).WithField("source", name).Warn("Starting with an empty ledger")
			continue
		}
		if n > 0 {
			appLog.WithFields(logrus.Fields{"source": name, "records": n}).Info("Ledger restored")
		}
	}

	healthCfg := health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        cfg.Server.HealthPort,
		Logger:      appLog,
	}
	if db != nil {
		healthCfg.DB = db
	}
	probes := health.NewServer(healthCfg)
	if err := probes.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	jobs := scheduler.NewScheduler(sequences, predictor, ledger, appLog)
	if cfg.Scheduler.WarmupOnStart {
		if failed := jobs.Warmup(ctx); failed > 0 {
			appLog.WithField("failed_sources", failed).Warn("Warm-up finished with failures")
		}
	}
	if cfg.Scheduler.Enabled {
		if err := jobs.ScheduleAll(cfg.Scheduler.RefreshSchedule); err != nil {
			return fmt.Errorf("failed to schedule refresh jobs: %w", err)
		}
		if err := jobs.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			if err := jobs.Stop(); err != nil {
				appLog.WithError(err).Warn("Scheduler did not stop cleanly")
			}
		}()
	}

	server := api.NewServer(api.ConfigFromApp(cfg), sequences, predictor, ledger, appLog)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	probes.SetReady(true)

	<-ctx.Done()
	probes.SetReady(false)
	appLog.Info("Shutdown signal received")
	return nil
}
