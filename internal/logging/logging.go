// Package logging sets up the structured run log.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rootsploit/arecon/internal/config"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Rotation limits for the run log.
const (
	maxSizeMB  = 20
	maxBackups = 5
	maxAgeDays = 30
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the run logger. A dry run never touches the filesystem, so it
// logs warnings and errors to stderr as text. Otherwise entries are JSON,
// appended to cfg.LogPath() and rotated by size. The returned closer
// flushes and closes the log file.
func New(cfg *config.Config) (*logrus.Logger, io.Closer, error) {
	if cfg.DryRun {
		return Stderr(logrus.WarnLevel), nopCloser{}, nil
	}

	path := cfg.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logger := logrus.New()
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
	logger.SetOutput(rotator)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: timestampFormat,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	logger.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger, rotator, nil
}

// Stderr returns a text logger on stderr. It serves dry runs and runs whose
// log file cannot be created.
func Stderr(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: timestampFormat,
		FullTimestamp:   true,
	})
	return logger
}

// Discard returns a logger that drops every entry. Tests and library callers
// without a run log use it.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
