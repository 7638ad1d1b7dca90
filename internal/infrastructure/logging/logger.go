// Package logging provides structured logging utilities.
//
// Console logs use a bracketed scope format:
// [LEVEL] [SCOPE] [HH:MM:SS] message key=value
package logging

import (
	"log/slog"
	"os"

	"github.com/bkooistra/factuurcheck/internal/infrastructure/config"
)

// NewLogger creates a structured logger based on config. Format "json"
// emits machine-readable records, anything else uses the console handler.
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = NewConsoleHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// NewLoggerWithScope creates a logger tagged with a scope name (e.g.
// "pipeline", "api"). Useful for scoped loggers injected into components.
func NewLoggerWithScope(cfg config.LoggingConfig, scope string) *slog.Logger {
	return NewLogger(cfg).With("scope", scope)
}
