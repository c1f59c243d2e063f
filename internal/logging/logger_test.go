package logging

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{" warn ", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
	}

	c := qt.New(t)
	for _, tt := range tests {
		c.Run(tt.in, func(c *qt.C) {
			got, err := ParseLevel(tt.in)
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.Equals, tt.want)
		})
	}

	_, err := ParseLevel("verbose")
	c.Assert(err, qt.ErrorMatches, "unknown log level: verbose")
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	c := qt.New(t)
	_, err := NewLogger("loud")
	c.Assert(err, qt.IsNotNil)
}

func TestSetLevelIsShared(t *testing.T) {
	c := qt.New(t)

	logger, err := NewLogger("info", "stderr")
	c.Assert(err, qt.IsNil)
	child := logger.With(zap.String("component", "test"))

	c.Assert(logger.SetLevel("error"), qt.IsNil)
	c.Assert(child.Level(), qt.Equals, zapcore.ErrorLevel)
	c.Assert(child.GetZap().Core().Enabled(zapcore.WarnLevel), qt.IsFalse)

	c.Assert(child.SetLevel("debug"), qt.IsNil)
	c.Assert(logger.GetZap().Core().Enabled(zapcore.DebugLevel), qt.IsTrue)

	c.Assert(logger.SetLevel("nope"), qt.IsNotNil)
	c.Assert(logger.Level(), qt.Equals, zapcore.DebugLevel)
}

func TestWithAddsFields(t *testing.T) {
	c := qt.New(t)

	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core)).With(zap.String("service", "archive"))

	logger.Debug("one")
	logger.Warn("two", zap.Int("n", 2))

	entries := logs.All()
	c.Assert(entries, qt.HasLen, 2)
	c.Assert(entries[0].ContextMap(), qt.DeepEquals, map[string]any{"service": "archive"})
	c.Assert(entries[1].Level, qt.Equals, zapcore.WarnLevel)
	c.Assert(entries[1].ContextMap()["n"], qt.Equals, int64(2))
}
