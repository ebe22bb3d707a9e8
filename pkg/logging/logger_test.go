package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type LoggerSuite struct {
	suite.Suite
	buf bytes.Buffer
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerSuite))
}

func (s *LoggerSuite) SetupTest() {
	s.buf.Reset()
	SetOutput(&s.buf)
	Configure("debug", "json")
	SetLoggerFactory(nil)
}

func (s *LoggerSuite) TearDownTest() {
	Configure("info", "text")
}

func (s *LoggerSuite) TestRequestIDIsAttachedToEntries() {
	ctx := WithRequestID(context.Background(), "req-123")

	NewLogger(ctx).Infof("hello %s", "world")

	var entry map[string]any
	s.Require().NoError(json.Unmarshal(s.buf.Bytes(), &entry))
	s.Equal("hello world", entry["msg"])
	s.Equal("req-123", entry[FieldRequestID])
}

func (s *LoggerSuite) TestWithFieldsMergesExistingFields() {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithFields(ctx, map[string]any{"stage": "transcription"})

	s.Equal("req-1", RequestIDFromContext(ctx))
	NewLogger(ctx).Warn("careful")

	var entry map[string]any
	s.Require().NoError(json.Unmarshal(s.buf.Bytes(), &entry))
	s.Equal("transcription", entry["stage"])
	s.Equal("req-1", entry[FieldRequestID])
}

func (s *LoggerSuite) TestDebugSuppressedAtInfoLevel() {
	Configure("info", "json")

	NewLogger(context.Background()).Debug("hidden")

	s.Empty(s.buf.String())
}

func (s *LoggerSuite) TestUnknownLevelFallsBackToInfo() {
	Configure("loud", "text")

	NewLogger(context.Background()).Info("visible")

	s.Contains(s.buf.String(), "visible")
}

type recordingFactory struct {
	created int
}

func (f *recordingFactory) CreateLogger(ctx context.Context) Logger {
	f.created++
	return newLogrusLogger(ctx)
}

func (s *LoggerSuite) TestFactoryOverridesDefault() {
	factory := &recordingFactory{}
	SetLoggerFactory(factory)
	defer SetLoggerFactory(nil)

	NewLogger(context.Background()).Info("via factory")

	s.Equal(1, factory.created)
	s.Same(factory, GetLoggerFactory())
}

func (s *LoggerSuite) TestLoggerFactoryFunc() {
	calls := 0
	SetLoggerFactory(LoggerFactoryFunc(func(ctx context.Context) Logger {
		calls++
		return newLogrusLogger(ctx)
	}))
	defer SetLoggerFactory(nil)

	NewLogger(WithRequestID(context.Background(), "r-9")).Info("via func")

	s.Equal(1, calls)
	s.Contains(s.buf.String(), "r-9")
}
