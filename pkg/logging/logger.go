package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	WithField(key string, value any) Logger
}

const (
	FormatText = "text"
	FormatJSON = "json"

	EnvLogLevel  = "GLOSSIFY_LOG_LEVEL"
	EnvLogFormat = "GLOSSIFY_LOG_FORMAT"
)

var (
	baseLoggerMu sync.RWMutex
	baseLogger   = newBaseLogger(os.Stderr)
)

type logrusLogger struct {
	entry *logrus.Entry
}

func (l *logrusLogger) Debug(args ...any) {
	l.entry.Debug(args...)
}

func (l *logrusLogger) Debugf(format string, args ...any) {
	l.entry.Debugf(format, args...)
}

func (l *logrusLogger) Info(args ...any) {
	l.entry.Info(args...)
}

func (l *logrusLogger) Infof(format string, args ...any) {
	l.entry.Infof(format, args...)
}

func (l *logrusLogger) Error(args ...any) {
	l.entry.Error(args...)
}

func (l *logrusLogger) Errorf(format string, args ...any) {
	l.entry.Errorf(format, args...)
}

func (l *logrusLogger) Warn(args ...any) {
	l.entry.Warn(args...)
}

func (l *logrusLogger) Warnf(format string, args ...any) {
	l.entry.Warnf(format, args...)
}

func (l *logrusLogger) Fatal(args ...any) {
	l.entry.Fatal(args...)
}

func (l *logrusLogger) Fatalf(format string, args ...any) {
	l.entry.Fatalf(format, args...)
}

func (l *logrusLogger) WithField(key string, value any) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}

func NewLogger(ctx context.Context) Logger {
	factory := GetLoggerFactory()
	if factory != nil {
		return factory.CreateLogger(ctx)
	}

	return newLogrusLogger(ctx)
}

// Configure sets level and output format of the default logrus logger.
// Empty values keep the current setting.
func Configure(level string, format string) error {
	baseLoggerMu.Lock()
	defer baseLoggerMu.Unlock()

	if strings.TrimSpace(level) != "" {
		parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
		if err != nil {
			return err
		}
		baseLogger.SetLevel(parsed)
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "":
	case FormatJSON:
		baseLogger.SetFormatter(&logrus.JSONFormatter{})
	case FormatText:
		baseLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}

// ConfigureFromEnv applies GLOSSIFY_LOG_LEVEL and GLOSSIFY_LOG_FORMAT.
func ConfigureFromEnv() error {
	return Configure(os.Getenv(EnvLogLevel), os.Getenv(EnvLogFormat))
}

// SetOutput redirects the default logger, mostly for tests.
func SetOutput(w io.Writer) {
	baseLoggerMu.Lock()
	defer baseLoggerMu.Unlock()
	baseLogger.SetOutput(w)
}

func newBaseLogger(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}

func newLogrusLogger(ctx context.Context) Logger {
	baseLoggerMu.RLock()
	logger := baseLogger
	baseLoggerMu.RUnlock()
	entry := logger.WithContext(ctx)
	if fields := FieldsFrom(ctx); len(fields) > 0 {
		entry = entry.WithFields(logrus.Fields(fields))
	}
	return &logrusLogger{entry: entry}
}
