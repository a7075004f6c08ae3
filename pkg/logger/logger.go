package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

// Init configures the process-wide logger. Production uses JSON at info,
// everything else a text handler at debug, unless level overrides it.
func Init(env string, level string) {
	InitWriter(os.Stderr, env, level)
}

func InitWriter(w io.Writer, env string, level string) {
	format := "text"
	if env == "production" {
		format = "json"
	}
	InitFormat(w, format, parseLevel(level, env))
}

// InitFormat installs a handler of the given format ("json" or "text").
func InitFormat(w io.Writer, format string, lvl slog.Level) {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	}

	l := slog.New(handler)

	mu.Lock()
	defaultLogger = l
	mu.Unlock()

	slog.SetDefault(l)
}

// ParseLevel maps a configured level name, falling back to the
// environment's default.
func ParseLevel(level, env string) slog.Level {
	return parseLevel(level, env)
}

func parseLevel(level, env string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if env == "production" {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

func LoggerWrapper() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l == nil {
		// lazy initialize a development logger to avoid nil pointer panics
		Init("development", "")
		mu.RLock()
		l = defaultLogger
		mu.RUnlock()
	}
	return l
}

// L is shorthand for LoggerWrapper.
func L() *slog.Logger {
	return LoggerWrapper()
}

// Discard returns a logger that drops everything, for tests and quiet CLI runs.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 4}))
}
