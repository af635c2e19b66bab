// ollama-chatbot - A streaming terminal chat client for local Ollama models.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amitkumartech/ollama-chatbot/internal/chat"
	"github.com/amitkumartech/ollama-chatbot/internal/cli"
	"github.com/amitkumartech/ollama-chatbot/internal/config"
	"github.com/amitkumartech/ollama-chatbot/internal/logging"
	"github.com/amitkumartech/ollama-chatbot/internal/ollama"
	uichat "github.com/amitkumartech/ollama-chatbot/internal/ui/chat"
	"github.com/amitkumartech/ollama-chatbot/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	if args.Plain {
		cli.SetPlain()
	}

	// Commands that need no config or server
	switch cmd {
	case cli.CmdVersion:
		cli.PrintVersion()
		return
	case cli.CmdHelp:
		if args.Unknown != "" {
			fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args.Unknown)
			cli.PrintUsage()
			os.Exit(cli.ExitUsageError)
		}
		cli.PrintUsage()
		return
	}

	cfg := loadConfig(args)

	if _, err := logging.Init(cfg); err != nil {
		// A broken log path must not take the chat down.
		fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", err)
	}

	client := ollama.NewClientWithConfig(cfg.ClientConfig())
	sess := chat.NewSession(client, cfg.DefaultModel)

	// Config hot reload only matters for the long-running front-ends.
	if cmd == cli.CmdTUI || cmd == cli.CmdChat {
		if w := startConfigWatcher(args, sess); w != nil {
			defer w.Close()
		}
	}

	switch cmd {
	case cli.CmdTUI:
		cli.Exit(runTUI(sess, client, cfg))
	case cli.CmdChat:
		cli.Exit(cli.HandleChat(sess, client, args))
	case cli.CmdAsk:
		cli.Exit(cli.HandleAsk(sess, client, args))
	case cli.CmdModels:
		cli.Exit(cli.HandleModels(client, args))
	case cli.CmdConfig:
		cli.Exit(cli.HandleConfig(args))
	}
}

// loadConfig loads configuration, applies command-line overrides, and
// installs the result as the process-wide config. Load failures fall
// back to defaults with a warning; a missing config file is normal.
func loadConfig(args cli.Args) *config.Config {
	var cfg *config.Config
	var err error

	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: using default config: %v\n", err)
		if cfg == nil {
			cfg = config.Default()
		}
	}

	if args.URL != "" {
		cfg.Server.URL = args.URL
	}
	if args.Model != "" {
		cfg.DefaultModel = args.Model
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(cli.ExitConfigError)
	}

	config.SetGlobal(cfg)
	return cfg
}

// startConfigWatcher reloads config on file change so a default-model
// edit applies to subsequent submissions. A --model override pins the
// model for the whole run. Server URL changes still need a restart; the
// client keeps the transport it started with.
func startConfigWatcher(args cli.Args, sess *chat.Session) *config.Watcher {
	w, err := config.NewWatcher(500*time.Millisecond, func(newCfg *config.Config) {
		if args.Model == "" && newCfg.DefaultModel != sess.Model() {
			sess.SetModel(newCfg.DefaultModel)
		}
		slog.Info("configuration reloaded", "model", newCfg.DefaultModel)
	})
	if err != nil {
		slog.Warn("config watcher unavailable", "err", err)
		return nil
	}
	if err := w.Watch(); err != nil {
		w.Close()
		slog.Warn("config watcher unavailable", "err", err)
		return nil
	}
	return w
}

// runTUI runs the Bubble Tea interface. Session events cross into the
// tea loop via Program.Send, so all model state stays on the loop.
func runTUI(sess *chat.Session, client *ollama.Client, cfg *config.Config) error {
	theme := styles.NewTheme(cfg.UI.Theme)
	m := uichat.New(sess, client, theme, uichat.Options{
		ShowStats: cfg.UI.ShowStats,
		Markdown:  cfg.UI.Markdown,
		Compact:   cfg.UI.CompactMode,
		Stream:    cfg.Server.Stream,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	sess.Subscribe(func(ev chat.Event) {
		p.Send(uichat.SessionEventMsg{Event: ev})
	})

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run UI: %w", err)
	}
	return nil
}
