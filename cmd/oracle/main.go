// Package main provides the streak-oracle command line: the API server and one-shot
// predict, backtest and tune commands.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/streak-oracle/internal/config"
	"github.com/yourusername/streak-oracle/internal/datasource"
	"github.com/yourusername/streak-oracle/internal/logger"
	"github.com/yourusername/streak-oracle/internal/metrics"
	"github.com/yourusername/streak-oracle/internal/models"
	"github.com/yourusername/streak-oracle/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	logLevel   string
	sourceName string
	inputFile  string

	cfg    *config.Config
	appLog *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "oracle",
	Short: "Forecast the next outcome of a binary event sequence",
	Long: `streak-oracle blends a fixed set of sequence experts into a probability for the next
binary outcome, tunes the blend by walk-forward backtesting and serves the result over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		metrics.InitRegistry()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultPath, "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	rootCmd.PersistentFlags().StringVarP(&sourceName, "source", "s", "", "Source name (defaults to the first configured source)")
	rootCmd.PersistentFlags().StringVarP(&inputFile, "file", "f", "", "Read the history from a JSON file instead of the configured sources")

	rootCmd.AddCommand(serveCmd, predictCmd, backtestCmd, tuneCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("streak-oracle %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.App.LogLevel = logLevel
	}

	secretsCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := config.LoadSecretsFromAWS(secretsCtx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	appLog = logger.New(cfg.App.LogLevel, cfg.App.LogFormat, os.Stderr)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"config":      configFile,
		"version":     Version,
	}).Debug("Configuration loaded")
	return nil
}

// newSequenceService builds the sources from config, or a single file source for --file.
func newSequenceService() (*service.SequenceService, error) {
	if inputFile != "" {
		src := datasource.NewFileSource("file", inputFile, true)
		return service.NewSequenceService([]datasource.Source{src}, appLog), nil
	}
	sources, err := datasource.NewFactory(cfg, appLog).NewSources()
	if err != nil {
		return nil, err
	}
	return service.NewSequenceService(sources, appLog), nil
}

// newPredictionService builds the service with a weight cache sized from config.
func newPredictionService() (*service.PredictionService, error) {
	svcCfg, err := service.ConfigFromApp(cfg)
	if err != nil {
		return nil, err
	}
	cache := service.NewWeightCache(cfg.Cache.WeightTTL(), cfg.Cache.CleanupInterval())
	return service.NewPredictionService(svcCfg, cache, appLog)
}

// loadEvents resolves the --source flag and loads its history.
func loadEvents(ctx context.Context, sequences *service.SequenceService) (string, []models.Event, error) {
	name, err := sequences.Resolve(sourceName)
	if err != nil {
		return "", nil, fmt.Errorf("%w (available: %v)", err, sequences.Sources())
	}
	events, err := sequences.Load(ctx, name)
	if err != nil {
		return "", nil, err
	}
	return name, events, nil
}
