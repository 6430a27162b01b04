// Package logging configures structured zerolog output for the tap.
//
// Singer taps own stdout for RECORD/SCHEMA/STATE messages, so logs always go
// to stderr unless a different writer is configured.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs page requests and per-page progress.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs stream start/finish and bookmarks.
	LevelInfo LogLevel = "info"

	// LevelWarn logs retries, throttling and skipped records.
	LevelWarn LogLevel = "warn"

	// LevelError logs failed streams only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer logs go to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(string(cfg.Level)))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(out).With().
		Timestamp().
		Str("tap", "tap-woocommerce").
		Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts a level name to a zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a logger for the given component from the global logger.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: page-level detail
//   - Page requests (path, page, encoded query)
//   - Total pages reported per response
//   - Rate limiter waits
//
// Info: sync progress
//   - Stream started/finished with record counts
//   - Bookmarks advanced
//   - State loaded/saved
//
// Warn: recoverable conditions
//   - Transport retries
//   - Server throttling (429, Retry-After)
//   - Records skipped by validation
//
// Error: failed work
//   - Stream failures (transport or pagination loop)
//   - State persistence failures
//
// Context Fields:
//   - component: package emitting the log
//   - stream: stream name
//   - path: endpoint path
//   - page / next_page / total_pages: pagination position
//   - records: record count
//   - error_class: client, server, rate_limit, network
