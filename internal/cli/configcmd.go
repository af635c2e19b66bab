// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// configcmd.go - Config get/set/list command.

package cli

import (
	"fmt"

	"github.com/amitkumartech/ollama-chatbot/internal/config"
)

// HandleConfig dispatches config subcommands.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "get":
		return configGet(args.ConfigKey)
	case "set":
		return configSet(args.ConfigKey, args.ConfigValue)
	case "list", "":
		return configList()
	default:
		return fmt.Errorf("unknown config subcommand %q (use get, set, or list)", args.Subcommand)
	}
}

func configGet(key string) error {
	if key == "" {
		return fmt.Errorf("usage: ollama-chatbot config get <key>")
	}

	value, err := config.Global().Get(key)
	if err != nil {
		return err
	}
	fmt.Printf("%s = %v\n", key, value)
	return nil
}

func configSet(key, value string) error {
	if key == "" || value == "" {
		return fmt.Errorf("usage: ollama-chatbot config set <key> <value>")
	}

	cfg := config.Global()
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("rejected: %w", err)
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("%s %s = %s\n", SuccessStyle.Render("[OK]"), key, value)
	return nil
}

func configList() error {
	cfg := config.Global()

	fmt.Println()
	fmt.Println(TitleStyle.Render("Configuration"))
	for _, key := range config.GetAllKeys() {
		value, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Printf("  %-28s %v\n", key, value)
	}
	fmt.Println()

	if path, err := config.ConfigPathTOML(); err == nil {
		fmt.Println(DimStyle.Render("File: " + path))
	}
	return nil
}
