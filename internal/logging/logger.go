// Package logging provides structured logging configuration using log/slog.
//
// Every pipeline run gets a generated run ID so the log entries of one
// export or confirmation run can be correlated after the fact.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Setup configures the global slog logger based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
//
// Use "json" format in production for machine parsing (ELK, CloudWatch, etc.)
// Use "text" format when running by hand for human readability.
func Setup(level, format string) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// WithRun returns a logger stamped with a fresh run ID plus the run ID
// itself. Pass the logger down so every entry of the run carries the ID.
//
// Usage:
//
//	log, runID := logging.WithRun("export")
//	log.Info("run started", "inbox", cfg.Paths.Inbox)
func WithRun(operation string) (*slog.Logger, string) {
	runID := uuid.NewString()
	return slog.Default().With("run_id", runID, "operation", operation), runID
}
