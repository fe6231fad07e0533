package logging

import (
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
)

// ParseLogLevel reads a level name from envVarName, falling back to
// defaultLevel when the variable is unset or unrecognized.
func ParseLogLevel(envVarName string, defaultLevel zapcore.Level) zapcore.Level {
	return ParseLogLevelString(os.Getenv(envVarName), defaultLevel)
}

// ParseLogLevelString accepts debug, info, warn, warning, error and fatal in
// any case.
func ParseLogLevelString(levelStr string, defaultLevel zapcore.Level) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return defaultLevel
	}
}
