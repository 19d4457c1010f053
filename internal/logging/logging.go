// Package logging owns the process-wide audit log. It is configured once at
// startup and handed to the components that write to it.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures Setup.
type Options struct {
	File      string    // audit log path; DefaultLogFile() when empty
	Level     string    // debug, info, warn, error
	Verbosity int       // -v count; >0 also mirrors the log to Console
	Console   io.Writer // defaults to os.Stderr
}

// Setup opens the audit log in append mode and installs the resulting logger
// as log.Logger. The returned Closer releases the log file.
func Setup(opts Options) (zerolog.Logger, io.Closer, error) {
	level := ParseLevel(opts.Level)
	switch {
	case opts.Verbosity == 2:
		level = zerolog.DebugLevel
	case opts.Verbosity > 2:
		level = zerolog.TraceLevel
	}
	zerolog.SetGlobalLevel(level)

	path := opts.File
	if path == "" {
		path = DefaultLogFile()
	}

	var writers []io.Writer
	if opts.Verbosity > 0 {
		out := opts.Console
		if out == nil {
			out = os.Stderr
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen})
	}

	var closer io.Closer = nopCloser{}
	file, fileErr := openLogFile(path)
	if fileErr == nil {
		writers = append(writers, file)
		closer = file
	}
	if len(writers) == 0 {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	logger := zerolog.New(io.MultiWriter(writers...)).Level(level).With().Timestamp().Logger()
	if opts.Verbosity >= 2 {
		logger = logger.With().Caller().Logger()
	}
	log.Logger = logger

	if fileErr != nil {
		logger.Warn().Err(fileErr).Str("path", path).Msg("Failed to open audit log, logging to console only")
	}
	logger.Debug().Str("level", level.String()).Str("logFile", path).Msg("Logger initialized")
	return logger, closer, nil
}

// ParseLevel maps a config level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "trace":
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}

// DefaultLogFile is $XDG_STATE_HOME/trinity/trinity.log.
func DefaultLogFile() string {
	return filepath.Join(xdg.StateHome, "trinity", "trinity.log")
}

// GetLogger returns a logger tagged with the given component name.
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type scopeKey struct{}

type scope struct {
	batchID  string
	actionID string
}

// WithAction returns a context whose log lines carry the batch and action ids.
func WithAction(ctx context.Context, batchID, actionID string) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope{batchID: batchID, actionID: actionID})
}

// Scope returns the batch and action ids stored by WithAction.
func Scope(ctx context.Context) (batchID, actionID string) {
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s.batchID, s.actionID
}

// Enrich adds the context's batch and action ids to l.
func Enrich(ctx context.Context, l zerolog.Logger) zerolog.Logger {
	batchID, actionID := Scope(ctx)
	if batchID == "" && actionID == "" {
		return l
	}
	c := l.With()
	if batchID != "" {
		c = c.Str("batch_id", batchID)
	}
	if actionID != "" {
		c = c.Str("action_id", actionID)
	}
	return c.Logger()
}

// LogOperationStart logs the start of an operation and returns a function
// that logs its completion with the elapsed time.
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().Str("operation", operation).Msg("Operation started")
	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}
