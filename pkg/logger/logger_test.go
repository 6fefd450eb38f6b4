package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestSetupWriter(t *testing.T) {
	assert.Equal(t, io.Writer(os.Stdout), SetupWriter(Config{Output: "stdout"}))
	assert.Equal(t, io.Writer(os.Stderr), SetupWriter(Config{Output: "stderr"}))
	assert.Equal(t, io.Writer(os.Stdout), SetupWriter(Config{Output: ""}))
	assert.Equal(t, io.Writer(os.Stdout), SetupWriter(Config{Output: "file"}))
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(Config{Level: "info", Format: "json", Output: "stdout"})
	require.NotNil(t, logger)
	logger.Info("test message", "key", "value")
}

func TestNewBatchIDUnique(t *testing.T) {
	id1 := NewBatchID()
	id2 := NewBatchID()
	assert.NotEqual(t, id1, id2)
	assert.NotEmpty(t, id1)
}

func TestWithBatchID(t *testing.T) {
	ctx := WithBatchID(context.Background(), "batch-1")
	assert.Equal(t, "batch-1", BatchIDFromContext(ctx))
}

func TestBatchIDFromContextEmpty(t *testing.T) {
	assert.Equal(t, "", BatchIDFromContext(context.Background()))
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx := WithBatchID(context.Background(), "batch-xyz")
	logger := FromContext(ctx, base)
	logger.Info("test message")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "batch-xyz", entry["batch_id"])

	buf.Reset()
	logger = FromContext(context.Background(), base)
	logger.Info("test message")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, exists := entry["batch_id"]
	assert.False(t, exists)
}
