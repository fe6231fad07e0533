package logging

import (
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileWriterConfig controls rotation of the log file.
// Zero fields take the defaults below.
type FileWriterConfig struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Rotation defaults. Logs hold redacted request metadata only, so a short
// retention window is enough.
const (
	DefaultMaxSizeMB  = 50
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 14
)

// DefaultFileWriterConfig returns the rotation settings used by New.
func DefaultFileWriterConfig() FileWriterConfig {
	return FileWriterConfig{
		MaxSizeMB:  DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAgeDays: DefaultMaxAgeDays,
		Compress:   true,
	}
}

// NewFileWriter returns a rotating zapcore.WriteSyncer backed by lumberjack.
func NewFileWriter(path string, cfg FileWriterConfig) zapcore.WriteSyncer {
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = DefaultMaxSizeMB
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = DefaultMaxBackups
	}
	if cfg.MaxAgeDays == 0 {
		cfg.MaxAgeDays = DefaultMaxAgeDays
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	})
}
