// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (OLLAMA_CHATBOT_*, OLLAMA_HOST)
//   - ~/.ollama-chatbot/config.toml
//   - ~/.ollama-chatbot/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	model := cfg.DefaultModel
//	client := ollama.NewClientWithConfig(cfg.ClientConfig())
//
// A Watcher can keep the global config in sync with disk while the
// application runs; see NewWatcher.
package config
