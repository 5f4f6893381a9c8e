package datasource

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/streak-oracle/internal/config"
)

// SourceType represents the type of data source
type SourceType string

const (
	// HTTPSourceType fetches from an upstream JSON endpoint
	HTTPSourceType SourceType = "http"
	// FileSourceType reads a JSON file from disk
	FileSourceType SourceType = "file"
)

// Factory creates Source implementations based on configuration
type Factory struct {
	logger *logrus.Logger
	config *config.Config
}

// NewFactory creates a new data source factory
func NewFactory(cfg *config.Config, logger *logrus.Logger) *Factory {
	if logger == nil {
		logger = logrus.New()
	}
	return &Factory{
		logger: logger,
		config: cfg,
	}
}

// NewSource creates a Source for one configuration entry
func (f *Factory) NewSource(sc config.SourceConfig) (Source, error) {
	switch SourceType(sc.Type) {
	case HTTPSourceType:
		if sc.URL == "" {
			return nil, fmt.Errorf("source %s: url is required", sc.Name)
		}
		client := NewRateLimitedHTTPClient(HTTPClientConfigFor(sc), f.logger)
		return NewHTTPSource(sc.Name, sc.URL, sc.APIToken, sc.Enabled, client, f.logger), nil
	case FileSourceType:
		if sc.Path == "" {
			return nil, fmt.Errorf("source %s: path is required", sc.Name)
		}
		return NewFileSource(sc.Name, sc.Path, sc.Enabled), nil
	default:
		return nil, fmt.Errorf("unknown data source type: %s", sc.Type)
	}
}

// ListAvailableSources returns the names of the enabled configured sources
func (f *Factory) ListAvailableSources() []string {
	var names []string
	if f.config == nil {
		return names
	}
	for _, sc := range f.config.Sources {
		if sc.Enabled {
			names = append(names, sc.Name)
		}
	}
	return names
}

// NewSources creates all enabled data sources from configuration
func (f *Factory) NewSources() ([]Source, error) {
	if f.config == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	var sources []Source
	for _, sc := range f.config.Sources {
		if !sc.Enabled {
			f.logger.WithField("source", sc.Name).Info("Skipping disabled data source")
			continue
		}

		source, err := f.NewSource(sc)
		if err != nil {
			return nil, fmt.Errorf("failed to create data source %s: %w", sc.Name, err)
		}

		sources = append(sources, source)
		f.logger.WithFields(logrus.Fields{"source": sc.Name, "type": sc.Type}).Info("Created data source")
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no enabled data sources configured")
	}
	return sources, nil
}
