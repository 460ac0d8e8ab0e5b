package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// getEnv parses a non-empty variable with parse, falling back to defaultValue
// when it is unset, empty or invalid.
func getEnv[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	valStr := strings.TrimSpace(os.Getenv(key))
	if valStr == "" {
		return defaultValue
	}
	val, err := parse(valStr)
	if err != nil {
		return defaultValue
	}
	return val
}

// GetEnvString retrieves a string from environment variables or returns the default value.
// A variable that is set but empty is returned as is.
func GetEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvInt retrieves an integer from environment variables or returns the default value.
func GetEnvInt(key string, defaultValue int) int {
	return getEnv(key, defaultValue, strconv.Atoi)
}

// GetEnvBool retrieves a boolean from environment variables or returns the default value.
func GetEnvBool(key string, defaultValue bool) bool {
	return getEnv(key, defaultValue, strconv.ParseBool)
}

// GetEnvDuration retrieves a duration from environment variables or returns the default value.
// Values with units ("750ms", "5s", "1m") are parsed as Go durations;
// a bare integer is interpreted as seconds.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return getEnv(key, defaultValue, func(s string) (time.Duration, error) {
		if d, err := time.ParseDuration(s); err == nil {
			return d, nil
		}
		n, err := strconv.Atoi(s)
		return time.Duration(n) * time.Second, err
	})
}

// GetEnvLogLevel retrieves a log level from environment variables or returns the default value.
func GetEnvLogLevel(key string, defaultValue zerolog.Level) zerolog.Level {
	return getEnv(key, defaultValue, zerolog.ParseLevel)
}

// SplitList splits a comma-separated string, trimming and dropping blank entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
