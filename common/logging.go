package common

import (
	"bytes"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// OutputSplitter routes log lines to stdout or stderr based on severity,
// so orchestrators and scripts can treat error streams separately.
type OutputSplitter struct{}

// Write sends error-level lines to stderr and everything else to stdout.
func (s *OutputSplitter) Write(p []byte) (n int, err error) {
	if bytes.Contains(p, []byte("level=error")) || bytes.Contains(p, []byte(`"level":"error"`)) {
		return os.Stderr.Write(p)
	}
	return os.Stdout.Write(p)
}

// Logger is the global logger instance shared by services that do not
// construct their own.
var Logger = NewLogger(DefaultLoggerConfig())

// LoggerConfig contains configuration for creating a logger.
type LoggerConfig struct {
	Level      string // debug, info, warn, error
	Format     string // "json" or "text"
	TimeFormat string
}

// DefaultLoggerConfig returns a logger config with sensible defaults.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:      "info",
		Format:     "text",
		TimeFormat: time.RFC3339,
	}
}

// NewLogger creates a configured logrus logger.
func NewLogger(config LoggerConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if config.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: config.TimeFormat,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: config.TimeFormat,
			FullTimestamp:   true,
		})
	}

	logger.SetOutput(&OutputSplitter{})
	return logger
}

// ServiceLogger returns an entry pre-configured with service metadata.
func ServiceLogger(logger *logrus.Logger, serviceName, serviceVersion string) *logrus.Entry {
	if logger == nil {
		logger = Logger
	}
	return logger.WithFields(logrus.Fields{
		"service": serviceName,
		"version": serviceVersion,
	})
}
