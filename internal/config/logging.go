package config

import "strings"

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevels = map[LogLevel]struct{}{
	LogLevelTrace: {},
	LogLevelDebug: {},
	LogLevelInfo:  {},
	LogLevelWarn:  {},
	LogLevelError: {},
}

// NormalizeLogLevel lowercases raw and maps common aliases. Unknown values
// are returned as-is so Validate can reject them.
func NormalizeLogLevel(raw string) LogLevel {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case "":
		return LogLevelInfo
	case "warning":
		return LogLevelWarn
	}
	return LogLevel(v)
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON    LogFormat = "json"
	LogFormatConsole LogFormat = "console"
)

// NormalizeLogFormat maps raw to a known format, defaulting to console.
func NormalizeLogFormat(raw string) LogFormat {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatConsole
	}
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}
