package infra

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const logDir = "logs"

// NewLogger creates a JSON slog.Logger writing to stdout and a rotating file.
func NewLogger(cfg *Config) *slog.Logger {
	level := ParseLevel(cfg.Logging.Level)

	if err := os.MkdirAll(logDir, 0755); err != nil {
		// Fallback to stderr if directory creation fails
		return newJSONLogger(os.Stderr, level, cfg.App.Name)
	}

	fileLogger := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "app.log"),
		MaxSize:    10, // Megabytes
		MaxBackups: 3,
		MaxAge:     28, // Days
		Compress:   true,
	}

	return newJSONLogger(io.MultiWriter(os.Stdout, fileLogger), level, cfg.App.Name)
}

func newJSONLogger(w io.Writer, level slog.Level, app string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	if app != "" {
		logger = logger.With(slog.String("app", app))
	}
	return logger
}

// ParseLevel maps a config level name to slog. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
