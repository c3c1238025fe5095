package logger

import (
	"io"
	"log/slog"
	"os"
)

const (
	EnvLocal = "local"
	EnvProd  = "production"
	EnvTest  = "test"
	EnvDev   = "development"
)

// SetupLogger builds the process logger for env. Logs go to stderr so that
// rendered reports on stdout stay machine-readable.
func SetupLogger(env string) *slog.Logger {
	return New(os.Stderr, env, levelFor(env))
}

// New builds a logger for env writing to w at the given level
func New(w io.Writer, env string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	switch env {
	case EnvTest, EnvDev, EnvProd:
		return slog.New(slog.NewJSONHandler(w, opts))
	default:
		return slog.New(slog.NewTextHandler(w, opts))
	}
}

// Discard returns a logger that drops every record
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func levelFor(env string) slog.Level {
	switch env {
	case EnvProd:
		return slog.LevelInfo
	case EnvLocal:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}
