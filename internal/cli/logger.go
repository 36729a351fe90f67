package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/sensefold/sensefold/internal/model"
)

// newLogger builds the process logger from config. Format "json" is for
// machine consumption, "text" for terminals; output is always stderr so
// result rendering on stdout stays clean.
func newLogger(cfg model.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
