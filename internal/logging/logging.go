// Package logging builds the zerolog logger shared by the CLI and the HTTP service.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/faleproxy/internal/config"
)

// Field names used across packages.
const (
	KeyRequestID    = "request_id"
	KeyURL          = "url"
	KeyStatus       = "status"
	KeyReplacements = "replacements"
)

// New returns a logger writing to w at the given level. Console format is
// human oriented; JSON suits log shippers.
func New(w io.Writer, cfg config.LogConfig) zerolog.Logger {
	out := w
	if cfg.Format != config.LogFormatJSON {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(Level(cfg.Level)).With().Timestamp().Logger()
}

// Level maps a config level to zerolog, defaulting to info.
func Level(l config.LogLevel) zerolog.Level {
	switch l {
	case config.LogLevelTrace:
		return zerolog.TraceLevel
	case config.LogLevelDebug:
		return zerolog.DebugLevel
	case config.LogLevelWarn:
		return zerolog.WarnLevel
	case config.LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
