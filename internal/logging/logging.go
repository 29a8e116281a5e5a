package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup creates the star tracker's *slog.Logger, sets it as the default,
// and returns it. The level parameter comes from STARTRACKER_LOG_LEVEL and
// accepts "debug", "info", "warn", "error" (case-insensitive); anything
// else falls back to info. Callers scope it per subsystem with
// logger.With("component", ...).
func Setup(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
