package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

const timeFormat = "060102 15:04:05.000"

// ParseLevel maps a config level name to slog; unknown names fall back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "critical":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a tint-backed logger writing to w.
func New(w io.Writer, level string) *slog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: timeFormat,
		NoColor:    noColor,
	}))
}

// Setup installs the logger as slog default and returns it.
func Setup(level string) *slog.Logger {
	logger := New(os.Stderr, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(ParseLevel(level))
	return logger
}

// Since is a small helper for "took" attributes.
func Since(start time.Time) slog.Attr {
	return slog.Duration("took", time.Since(start).Truncate(time.Millisecond))
}
