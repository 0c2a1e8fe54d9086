// Package logging installs the process-wide slog handler.
//
// Development gets colored, human readable output via tint; any other
// environment gets JSON lines suitable for log shipping.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup builds the handler for env and level and makes it the default logger.
func Setup(env, level string) *slog.Logger {
	logger := New(os.Stderr, env, ParseLevel(level))
	slog.SetDefault(logger)
	return logger
}

func New(w io.Writer, env string, level slog.Level) *slog.Logger {
	if strings.EqualFold(env, "development") {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			AddSource:  level == slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
