// Package logger wraps logrus behind the small structured-logging surface
// the reader needs: leveled messages with chained fields, and rotating file
// output for the probe tool. Library code receives a Logger and never
// configures output itself; a reader built without one logs nowhere.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"

	"github.com/dgorgone/nlayer/internal/config"
)

// Fields is shorthand for a set of log fields.
type Fields = logrus.Fields

// Logger is the structured-logging surface used across the reader. Every
// With* call returns a derived logger; the receiver is never mutated.
type Logger interface {
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})

	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// FromLogrus exposes a configured logrus logger through the Logger surface.
func FromLogrus(l *logrus.Logger) Logger {
	return entryLogger{entry: logrus.NewEntry(l)}
}

// Discard returns a Logger that drops everything. Readers constructed
// without an explicit logger use it.
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return entryLogger{entry: logrus.NewEntry(l)}
}

type entryLogger struct {
	entry *logrus.Entry
}

func (l entryLogger) WithField(key string, value interface{}) Logger {
	return entryLogger{entry: l.entry.WithField(key, value)}
}

func (l entryLogger) WithFields(fields map[string]interface{}) Logger {
	return entryLogger{entry: l.entry.WithFields(fields)}
}

func (l entryLogger) WithError(err error) Logger {
	return entryLogger{entry: l.entry.WithError(err)}
}

func (l entryLogger) Debug(args ...interface{}) { l.entry.Debug(args...) }
func (l entryLogger) Info(args ...interface{})  { l.entry.Info(args...) }
func (l entryLogger) Warn(args ...interface{})  { l.entry.Warn(args...) }
func (l entryLogger) Error(args ...interface{}) { l.entry.Error(args...) }

func (l entryLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l entryLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l entryLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l entryLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// New builds the probe tool's logrus logger from its logging config. It
// fails on an unknown level or when the log file's directory cannot be
// created.
func New(cfg *config.LoggingConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	out, err := destination(cfg)
	if err != nil {
		return nil, err
	}

	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(formatter(cfg.Format))
	l.SetOutput(out)
	return l, nil
}

func formatter(format string) logrus.Formatter {
	if format == "json" {
		return &logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		}
	}
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	}
}

// destination resolves the configured output. Anything that is not a
// standard stream is a file path and gets size/age-based rotation.
func destination(cfg *config.LoggingConfig) (io.Writer, error) {
	switch cfg.Output {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Output), 0o755); err != nil {
		return nil, fmt.Errorf("log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   cfg.Output,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   true,
	}, nil
}
