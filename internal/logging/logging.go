// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the process-wide structured logger.
//
// Logs go to a rotating file under the config directory, never to the
// terminal: both front-ends own stdout and stderr, and interleaved log
// lines would corrupt the display.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/amitkumartech/ollama-chatbot/internal/config"
)

// Init configures slog to write structured logs to a rotating file and
// installs it as the default logger. Returns the logger so callers can
// attach component attributes.
func Init(cfg *config.Config) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Log.Level)}

	logPath, err := cfg.LogPath()
	if err != nil {
		logger := slog.New(newHandler(cfg.Log.Format, io.Discard, opts))
		slog.SetDefault(logger)
		return logger, err
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		logger := slog.New(newHandler(cfg.Log.Format, io.Discard, opts))
		slog.SetDefault(logger)
		return logger, err
	}

	writer := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}

	logger := slog.New(newHandler(cfg.Log.Format, writer, opts))
	slog.SetDefault(logger)
	return logger, nil
}

// InitDiscard installs a logger that drops everything. Used by tests and
// one-shot commands where a log file would be noise.
func InitDiscard() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(level string) slog.Level {
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

func newHandler(format string, out io.Writer, opts *slog.HandlerOptions) slog.Handler {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text":
		return slog.NewTextHandler(out, opts)
	default:
		return slog.NewJSONHandler(out, opts)
	}
}
