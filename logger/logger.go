// ABOUTME: This file provides the process-wide structured logger built on log/slog
// ABOUTME: JSON output in production, human-readable text elsewhere, level from LOG_LEVEL
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Logger is the package-global logger. main.go configures it via Init;
// the init below keeps it non-nil so tests never hit a nil handler.
var Logger *slog.Logger

func init() {
	if Logger == nil {
		Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{}))
	}
}

// Init configures the global logger from the environment and returns it.
func Init() *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	Logger = slog.New(handler)
	return Logger
}

func parseLevel(value string) slog.Level {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
