// Package logger provides a wrapper around logrus for structured logging.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a new configured logger instance writing to stdout
func NewLogger(logLevel string) *logrus.Logger {
	return New(logLevel, "", os.Stdout)
}

// New builds a logger. format is "json", "text" or empty; empty picks JSON when
// ENVIRONMENT=production and colored text otherwise.
func New(logLevel, format string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s', defaulting to info", logLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if format == "" && os.Getenv("ENVIRONMENT") == "production" {
		format = "json"
	}
	switch strings.ToLower(format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   format == "",
		})
	}
	return logger
}
