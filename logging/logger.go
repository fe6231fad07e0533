// Package logging builds the zap loggers used across the service: console
// plus rotating file output, with API keys redacted before encoding.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	// Development switches the console to colored text and the default level to debug.
	Development bool

	// Level overrides the default level when non-nil.
	Level *zapcore.Level

	// FilePath is the rotating log file. Empty disables file output.
	FilePath string
	File     FileWriterConfig

	// Console defaults to os.Stdout.
	Console zapcore.WriteSyncer
}

// Logger wraps zap.Logger with automatic redaction of credentials and patient
// phone numbers. Redaction lives in the core, so the *zap.Logger returned by
// Zap carries it too.
//
// Example:
//
//	logger, err := logging.New(logging.Options{Development: true, FilePath: "discharge.log"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("server started", zap.Int("port", 8000))
type Logger struct {
	zap           *zap.Logger
	sugar         *zap.SugaredLogger
	isDevelopment bool
	logFilePath   string
}

// New builds a Logger from opts.
func New(opts Options) (*Logger, error) {
	level := zapcore.InfoLevel
	if opts.Development {
		level = zapcore.DebugLevel
	}
	if opts.Level != nil {
		level = *opts.Level
	}

	console := opts.Console
	if console == nil {
		console = zapcore.Lock(os.Stdout)
	}

	var file zapcore.WriteSyncer
	if opts.FilePath != "" {
		f, err := os.OpenFile(opts.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", opts.FilePath, err)
		}
		f.Close()

		cfg := opts.File
		if cfg == (FileWriterConfig{}) {
			cfg = DefaultFileWriterConfig()
		}
		file = NewFileWriter(opts.FilePath, cfg)
	}

	core := NewRedactingCore(NewMultiCore(level, console, file, opts.Development))
	zapLogger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	return &Logger{
		zap:           zapLogger,
		sugar:         zapLogger.Sugar(),
		isDevelopment: opts.Development,
		logFilePath:   opts.FilePath,
	}, nil
}

// NewFromCore wraps an existing core, typically an observer in tests.
func NewFromCore(core zapcore.Core) *Logger {
	zapLogger := zap.New(NewRedactingCore(core))
	return &Logger{zap: zapLogger, sugar: zapLogger.Sugar()}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	if l == nil || l.zap == nil {
		return nil
	}
	return l.zap.Sync()
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.zap.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.zap.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.zap.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.zap.Error(msg, fields...) }

// Fatal logs at FatalLevel then calls os.Exit(1).
func (l *Logger) Fatal(msg string, fields ...zap.Field) { l.zap.Fatal(msg, fields...) }

// Infow logs loosely-typed key-value pairs at InfoLevel.
func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

// Warnw logs loosely-typed key-value pairs at WarnLevel.
func (l *Logger) Warnw(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

// Errorw logs loosely-typed key-value pairs at ErrorLevel.
func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// With creates a child logger with fields attached to every entry.
func (l *Logger) With(fields ...zap.Field) *Logger {
	child := l.zap.With(fields...)
	return &Logger{
		zap:           child,
		sugar:         child.Sugar(),
		isDevelopment: l.isDevelopment,
		logFilePath:   l.logFilePath,
	}
}

// Named adds a sub-logger name, e.g. "llm" or "webui".
func (l *Logger) Named(name string) *Logger {
	child := l.zap.Named(name)
	return &Logger{
		zap:           child,
		sugar:         child.Sugar(),
		isDevelopment: l.isDevelopment,
		logFilePath:   l.logFilePath,
	}
}

// Zap returns the underlying zap.Logger for packages that take one.
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

// IsDevelopment returns true if the logger is configured for development mode.
func (l *Logger) IsDevelopment() bool {
	return l.isDevelopment
}

// LogFilePath returns the path to the log file.
func (l *Logger) LogFilePath() string {
	return l.logFilePath
}
