package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Log is the process logger. It discards everything until Setup runs, which
// keeps package tests quiet.
var Log = slog.New(slog.NewTextHandler(io.Discard, nil))

// Setup installs the process logger writing to stdout
func Setup(env, level string) {
	SetupWriter(os.Stdout, env, level)
}

// SetupWriter installs the process logger writing to w. Production gets one
// JSON object per line for the log shipper; other environments get text.
func SetupWriter(w io.Writer, env, level string) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if env == "production" {
		h = slog.NewJSONHandler(w, opts)
	}
	Log = slog.New(h)
	slog.SetDefault(Log)
}

// ParseLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// With returns a child logger tagged with the component name
func With(component string) *slog.Logger {
	return Log.With(slog.String("component", component))
}

// Info logs an info message
func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}
