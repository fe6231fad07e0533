package logging

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// JSON keys used in file output.
const (
	FieldTimestamp  = "timestamp"
	FieldLevel      = "level"
	FieldSource     = "source"
	FieldMessage    = "message"
	FieldStacktrace = "stacktrace"
	FieldCaller     = "caller"
)

// NewEncoderConfig returns the encoder configuration for JSON output:
// ISO8601 timestamps, lowercase levels and short caller paths.
func NewEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        FieldTimestamp,
		LevelKey:       FieldLevel,
		NameKey:        FieldSource,
		CallerKey:      FieldCaller,
		MessageKey:     FieldMessage,
		StacktraceKey:  FieldStacktrace,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// NewConsoleEncoderConfig is NewEncoderConfig with colored levels and a
// compact clock for terminals.
func NewConsoleEncoderConfig() zapcore.EncoderConfig {
	cfg := NewEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("15:04:05.000"))
	}
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	return cfg
}
