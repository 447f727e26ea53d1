package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"internmatch/profile-builder/internal/config"
)

const logFileName = "profile-builder.log"

// NewLogger builds the process logger and installs it as the slog default.
// With a log dir set, output is mirrored to a rotated file; the returned
// close func flushes and closes that file.
func NewLogger(cfg config.LoggingConfig) (*slog.Logger, func() error, error) {
	return newLoggerTo(os.Stdout, cfg)
}

func newLoggerTo(stdout io.Writer, cfg config.LoggingConfig) (*slog.Logger, func() error, error) {
	level := parseLevel(cfg.Level)
	noop := func() error { return nil }

	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		logger := newLogger(stdout, level, false)
		slog.SetDefault(logger)
		return logger, noop, nil
	}

	if cfg.MaxSizeMB <= 0 || cfg.MaxBackups <= 0 || cfg.MaxAgeDays <= 0 {
		return nil, noop, fmt.Errorf("invalid log rotation: size=%dMB backups=%d age=%dd",
			cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, noop, fmt.Errorf("failed to create log dir: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(dir, logFileName),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	logger := newLogger(io.MultiWriter(stdout, file), level, true)
	slog.SetDefault(logger)
	logger.Info("📝 file logging enabled", slog.String("path", file.Filename))
	return logger, file.Close, nil
}

func newLogger(w io.Writer, level slog.Level, noColor bool) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    noColor,
	}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
