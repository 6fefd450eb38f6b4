// Package logger provides structured logging functionality using slog.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ContextKey is the type for context keys used by this package.
type ContextKey string

const (
	// BatchIDKey is the context key for the validation batch ID.
	BatchIDKey ContextKey = "batch_id"
)

// Config holds logger configuration.
type Config struct {
	Level      string
	Format     string
	Output     string
	Filename   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// NewLogger creates a new structured logger based on configuration.
func NewLogger(cfg Config) *slog.Logger {
	level := ParseLevel(cfg.Level)
	writer := SetupWriter(cfg)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return slog.New(handler)
}

// ParseLevel parses a string log level into a slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupWriter configures the output writer based on configuration.
func SetupWriter(cfg Config) io.Writer {
	switch strings.ToLower(cfg.Output) {
	case "file":
		if cfg.Filename == "" {
			return os.Stdout
		}
		return &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	case "stderr":
		return os.Stderr
	case "stdout", "":
		return os.Stdout
	default:
		return os.Stdout
	}
}

// NewBatchID generates a unique identifier for a validation batch.
// WithBatchID and FromContext carry it into log lines; the validators in
// internal/validation do not call these helpers themselves.
func NewBatchID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Sprintf("batch_%d", time.Now().UnixNano())
	}
	return id.String()
}

// WithBatchID attaches a batch ID to ctx.
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, BatchIDKey, batchID)
}

// BatchIDFromContext extracts the batch ID from ctx, or "" if absent.
func BatchIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(BatchIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext returns logger annotated with the batch ID carried by ctx, if any.
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if batchID := BatchIDFromContext(ctx); batchID != "" {
		return logger.With("batch_id", batchID)
	}
	return logger
}
