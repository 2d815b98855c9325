// Package logging provides structured logging utilities.
//
// The "console" format renders [LEVEL] [HH:MM:SS] message key=value lines
// with colors when attached to a terminal; "json" and "text" use the
// standard slog handlers.
package logging

import (
	"log/slog"
	"os"

	"github.com/billsync/reconcile-backend/internal/infrastructure/config"
)

// NewLogger creates a structured logger based on config
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "console":
		handler = NewConsoleHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// NewLoggerWithComponent creates a logger scoped to one component, e.g.
// "api" or "reconcile".
func NewLoggerWithComponent(cfg config.LoggingConfig, component string) *slog.Logger {
	return NewLogger(cfg).With("component", component)
}
