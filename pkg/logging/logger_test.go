package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
)

type LoggerSuite struct {
	suite.Suite
	buf *bytes.Buffer
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerSuite))
}

func (s *LoggerSuite) SetupTest() {
	s.buf = &bytes.Buffer{}
	SetOutput(s.buf)
	s.Require().NoError(Configure("info", FormatText))
}

func (s *LoggerSuite) TearDownTest() {
	SetLoggerFactory(nil)
	baseLoggerMu.Lock()
	baseLogger = newBaseLogger(os.Stderr)
	baseLoggerMu.Unlock()
}

func (s *LoggerSuite) TestLevelFiltersDebug() {
	log := NewLogger(context.Background())
	log.Debugf("hidden %d", 1)
	log.Infof("shown %d", 2)

	s.NotContains(s.buf.String(), "hidden 1")
	s.Contains(s.buf.String(), "shown 2")
}

func (s *LoggerSuite) TestJSONFormatWithField() {
	s.Require().NoError(Configure("debug", FormatJSON))

	NewLogger(context.Background()).WithField("state", "Sorted").Debug("transition")

	line := map[string]any{}
	s.Require().NoError(json.Unmarshal(bytes.TrimSpace(s.buf.Bytes()), &line))
	s.Equal("transition", line["msg"])
	s.Equal("Sorted", line["state"])
}

func (s *LoggerSuite) TestConfigureRejectsUnknownValues() {
	s.Error(Configure("loud", ""))
	s.Error(Configure("", "xml"))
}

func (s *LoggerSuite) TestFactoryOverride() {
	SetLoggerFactory(&stubFactory{})
	log := NewLogger(context.Background())
	_, ok := log.(*stubLogger)
	s.True(ok)
}

func (s *LoggerSuite) TestFactoryFunc() {
	var seen context.Context
	SetLoggerFactory(LoggerFactoryFunc(func(ctx context.Context) Logger {
		seen = ctx
		return &stubLogger{}
	}))

	ctx := context.WithValue(context.Background(), fieldsKey{}, map[string]any{"a": 1})
	NewLogger(ctx)
	s.Equal(ctx, seen)
}

func (s *LoggerSuite) TestContextFieldsAttachToEveryLine() {
	s.Require().NoError(Configure("info", FormatJSON))

	ctx := ContextWithFields(context.Background(), map[string]any{"transport": "native", "request": 1})
	ctx = ContextWithFields(ctx, map[string]any{"request": 2})
	NewLogger(ctx).Info("handled")

	line := map[string]any{}
	s.Require().NoError(json.Unmarshal(bytes.TrimSpace(s.buf.Bytes()), &line))
	s.Equal("native", line["transport"])
	s.Equal(float64(2), line["request"])
	s.Nil(FieldsFrom(context.Background()))
}

type stubFactory struct{}

func (f *stubFactory) CreateLogger(ctx context.Context) Logger {
	return &stubLogger{}
}

type stubLogger struct{}

func (l *stubLogger) Debug(args ...any)                      {}
func (l *stubLogger) Debugf(format string, args ...any)      {}
func (l *stubLogger) Info(args ...any)                       {}
func (l *stubLogger) Infof(format string, args ...any)       {}
func (l *stubLogger) Warn(args ...any)                       {}
func (l *stubLogger) Warnf(format string, args ...any)       {}
func (l *stubLogger) Error(args ...any)                      {}
func (l *stubLogger) Errorf(format string, args ...any)      {}
func (l *stubLogger) Fatal(args ...any)                      {}
func (l *stubLogger) Fatalf(format string, args ...any)      {}
func (l *stubLogger) WithField(key string, value any) Logger { return l }
