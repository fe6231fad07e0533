package core

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnvOrDefault returns the trimmed value of an environment variable, or
// defaultValue when it is unset or blank.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// ParseIntEnv parses an environment variable as an integer.
// Unset or unparsable values yield defaultValue.
func ParseIntEnv(key string, defaultValue int) int {
	if value := GetEnvOrDefault(key, ""); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// ParseInt64Env is ParseIntEnv for int64 values such as byte sizes.
func ParseInt64Env(key string, defaultValue int64) int64 {
	if value := GetEnvOrDefault(key, ""); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

// ParseBoolEnv accepts true/1/yes/on and false/0/no/off, case-insensitive.
func ParseBoolEnv(key string, defaultValue bool) bool {
	switch strings.ToLower(GetEnvOrDefault(key, "")) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// ParseDurationEnv reads a whole number of units (seconds, minutes) from the
// environment. A Go duration string such as "1500ms" is also accepted.
func ParseDurationEnv(key string, defaultValue, unit time.Duration) time.Duration {
	value := GetEnvOrDefault(key, "")
	if value == "" {
		return defaultValue
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * unit
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}
