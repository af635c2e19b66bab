// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amitkumartech/ollama-chatbot/internal/config"
)

func TestInit_WritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "chatbot.log")

	cfg := config.Default()
	cfg.Log.File = logPath
	cfg.Log.Level = "debug"

	logger, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logger.Info("stream complete", "tokens", 42)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	var record map[string]any
	line := strings.TrimSpace(string(data))
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, line)
	}
	if record["msg"] != "stream complete" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["tokens"] != float64(42) {
		t.Errorf("tokens = %v", record["tokens"])
	}
}

func TestInit_LevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "chatbot.log")

	cfg := config.Default()
	cfg.Log.File = logPath
	cfg.Log.Level = "warn"

	if _, err := Init(cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	slog.Debug("should be dropped")
	slog.Info("should be dropped too")
	slog.Warn("should appear")

	data, _ := os.ReadFile(logPath)
	out := string(data)
	if strings.Contains(out, "dropped") {
		t.Errorf("below-level records written:\n%s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn record missing:\n%s", out)
	}
}

func TestInit_TextFormat(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "chatbot.log")

	cfg := config.Default()
	cfg.Log.File = logPath
	cfg.Log.Format = "text"

	if _, err := Init(cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	slog.Info("hello")

	data, _ := os.ReadFile(logPath)
	if !strings.Contains(string(data), "msg=hello") {
		t.Errorf("expected text format, got:\n%s", data)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
