package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billsync/reconcile-backend/internal/infrastructure/config"
)

func TestConsoleHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	handler := NewConsoleHandler(&buf, nil)
	logger := slog.New(handler)

	logger.Info("linked cycle", "cycle", "2024-11", "transactions", 2)

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "linked cycle")
	assert.Contains(t, out, "cycle=2024-11")
	assert.Contains(t, out, "transactions=2")
	// A buffer is not a terminal, so no escape codes.
	assert.NotContains(t, out, "\033[")
}

func TestConsoleHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	level := slog.LevelWarn
	handler := NewConsoleHandler(&buf, &slog.HandlerOptions{Level: level})

	assert.False(t, handler.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelWarn))
}

func TestConsoleHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	handler := NewConsoleHandler(&buf, nil)

	scoped := handler.WithAttrs([]slog.Attr{slog.String("component", "reconcile")})
	record := slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0)
	require.NoError(t, scoped.Handle(context.Background(), record))

	assert.Contains(t, buf.String(), "component=reconcile")
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"text", "json", "console", ""} {
		logger := NewLogger(config.LoggingConfig{Level: "debug", Format: format})
		require.NotNil(t, logger)
		assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	}
}
