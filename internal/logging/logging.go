// Package logging configures slog for the betna server.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup initializes the default slog logger.
// Dev mode logs human-readable text at debug; prod logs JSON at info.
// A non-empty level ("debug", "info", "warn", "error") overrides the mode default.
func Setup(devMode bool, level string) {
	lvl := slog.LevelInfo
	if devMode {
		lvl = slog.LevelDebug
	}
	if parsed, ok := ParseLevel(level); ok {
		lvl = parsed
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if devMode {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
