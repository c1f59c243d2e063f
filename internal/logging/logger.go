package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	zap   *zap.Logger
	level zap.AtomicLevel
}

// NewLogger builds a JSON logger writing to outputPaths (stdout when
// empty) at the given level.
func NewLogger(logLevel string, outputPaths ...string) (*Logger, error) {
	level, err := ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}

	if len(outputPaths) == 0 {
		outputPaths = []string{"stdout"}
	}

	atomicLevel := zap.NewAtomicLevelAt(level)

	config := zap.NewProductionConfig()
	config.Level = atomicLevel
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.CallerKey = "caller"
	config.EncoderConfig.StacktraceKey = "stacktrace"
	config.OutputPaths = outputPaths
	config.ErrorOutputPaths = []string{"stderr"}

	zapLogger, err := config.Build(
		zap.AddCaller(),
		zap.AddCallerSkip(1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &Logger{
		zap:   zapLogger,
		level: atomicLevel,
	}, nil
}

func NewNop() *Logger {
	return &Logger{
		zap:   zap.NewNop(),
		level: zap.NewAtomicLevel(),
	}
}

// FromZap wraps an existing zap logger, mostly for tests using zaptest
// or observer cores.
func FromZap(z *zap.Logger) *Logger {
	return &Logger{
		zap:   z,
		level: zap.NewAtomicLevelAt(zapcore.DebugLevel),
	}
}

func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "dpanic":
		return zapcore.DPanicLevel, nil
	case "panic":
		return zapcore.PanicLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}

// SetLevel changes the level of this logger and every logger derived from
// it with With.
func (l *Logger) SetLevel(logLevel string) error {
	level, err := ParseLevel(logLevel)
	if err != nil {
		return err
	}
	l.level.SetLevel(level)
	return nil
}

func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.Error(msg, fields...)
}

func (l *Logger) Fatal(msg string, fields ...zap.Field) {
	l.zap.Fatal(msg, fields...)
}

func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{
		zap:   l.zap.With(fields...),
		level: l.level,
	}
}

func (l *Logger) Sync() error {
	return l.zap.Sync()
}

func (l *Logger) GetZap() *zap.Logger {
	return l.zap
}
