// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing for ollama-chatbot.
//
// Parsing is hand-rolled rather than flag-package based so that global
// flags may appear before or after the subcommand and so the default
// (no subcommand) case can launch the TUI.

package cli

import (
	"fmt"
	"os"
	"strings"
)

// Build-time variables set via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command identifies which subcommand was requested.
type Command int

const (
	// CmdTUI launches the full-screen terminal UI (the default).
	CmdTUI Command = iota
	// CmdChat runs the plain-terminal REPL.
	CmdChat
	// CmdAsk runs a one-shot question and prints the answer.
	CmdAsk
	// CmdModels lists models available on the Ollama server.
	CmdModels
	// CmdConfig gets, sets, or lists configuration values.
	CmdConfig
	// CmdVersion prints version information.
	CmdVersion
	// CmdHelp prints usage.
	CmdHelp
)

// Args holds parsed command-line arguments.
type Args struct {
	// Global flags
	Model      string // --model / -m: override the default model
	URL        string // --url: override the Ollama server URL
	ConfigPath string // --config: explicit config file path
	NoStream   bool   // --no-stream: use the non-streaming request path
	Plain      bool   // --plain: disable markdown rendering and colors
	Verbose    bool   // --verbose / -v

	// Command arguments
	Query       string // ask: the question text
	File        string // ask --file: file to include as context
	ConfigKey   string // config get/set: key
	ConfigValue string // config set: value
	Subcommand  string // config: "get", "set", or "list"

	// Unknown holds an unrecognized subcommand, reported by CmdHelp.
	Unknown string
}

const usageText = `ollama-chatbot - local LLM chat client for Ollama

Version: %s

Usage:
  ollama-chatbot [flags]                  Launch the terminal UI
  ollama-chatbot chat [flags]             Plain-terminal chat REPL
  ollama-chatbot ask [flags] "question"   One-shot question
  ollama-chatbot models                   List available models
  ollama-chatbot config get <key>         Show a config value
  ollama-chatbot config set <key> <value> Set and save a config value
  ollama-chatbot config list              List all config keys
  ollama-chatbot version                  Show version information
  ollama-chatbot help                     Show this help

Flags:
  -m, --model <name>   Model to use (overrides config)
      --url <url>      Ollama server URL (overrides config)
      --config <path>  Config file path
      --no-stream      Disable streaming (wait for the full response)
      --plain          Plain output: no markdown, no colors
  -v, --verbose        Verbose logging
  -h, --help           Show help

Ask examples:
  ollama-chatbot ask "explain goroutines"
  ollama-chatbot ask --file main.go "review this"
  cat notes.txt | ollama-chatbot ask "summarize"

Config file: ~/.ollama-chatbot/config.toml
`

// PrintUsage writes usage text to stdout.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion writes version information to stdout.
func PrintVersion() {
	fmt.Printf("ollama-chatbot %s\n", Version)
	fmt.Printf("  commit: %s\n", GitCommit)
	fmt.Printf("  built:  %s\n", BuildDate)
}

// Parse interprets os.Args-style arguments (excluding the program name)
// and returns the command plus its parsed arguments.
func Parse(argv []string) (Command, Args) {
	var args Args

	rest := parseGlobalFlags(argv, &args)
	if len(rest) == 0 {
		return CmdTUI, args
	}

	raw := rest[0]
	cmd := strings.ToLower(raw)
	rest = rest[1:]

	switch cmd {
	case "tui":
		return CmdTUI, args
	case "chat", "repl":
		return CmdChat, args
	case "ask":
		parseAskArgs(rest, &args)
		return CmdAsk, args
	case "models", "list":
		return CmdModels, args
	case "config":
		parseConfigArgs(rest, &args)
		return CmdConfig, args
	case "version", "--version":
		return CmdVersion, args
	case "help", "--help", "-h":
		return CmdHelp, args
	default:
		args.Unknown = raw
		return CmdHelp, args
	}
}

// parseGlobalFlags extracts global flags from argv and returns the
// remaining positional arguments in order.
func parseGlobalFlags(argv []string, args *Args) []string {
	var rest []string
	for i := 0; i < len(argv); i++ {
		a := argv[i]
		switch {
		case a == "--model" || a == "-m":
			if i+1 < len(argv) {
				i++
				args.Model = argv[i]
			}
		case strings.HasPrefix(a, "--model="):
			args.Model = strings.TrimPrefix(a, "--model=")
		case a == "--url":
			if i+1 < len(argv) {
				i++
				args.URL = argv[i]
			}
		case strings.HasPrefix(a, "--url="):
			args.URL = strings.TrimPrefix(a, "--url=")
		case a == "--config":
			if i+1 < len(argv) {
				i++
				args.ConfigPath = argv[i]
			}
		case strings.HasPrefix(a, "--config="):
			args.ConfigPath = strings.TrimPrefix(a, "--config=")
		case a == "--file" || a == "-f":
			if i+1 < len(argv) {
				i++
				args.File = argv[i]
			}
		case strings.HasPrefix(a, "--file="):
			args.File = strings.TrimPrefix(a, "--file=")
		case a == "--no-stream":
			args.NoStream = true
		case a == "--plain":
			args.Plain = true
		case a == "--verbose" || a == "-v":
			args.Verbose = true
		default:
			rest = append(rest, a)
		}
	}
	return rest
}

// parseAskArgs joins remaining positionals into the query. A query may
// also arrive on stdin (handled by HandleAsk), so empty is allowed here.
func parseAskArgs(rest []string, args *Args) {
	if len(rest) > 0 {
		args.Query = strings.Join(rest, " ")
	}
}

// parseConfigArgs parses config subcommands: get <key>, set <key>
// <value>, list. Missing pieces are validated in HandleConfig where the
// error can be displayed with usage context.
func parseConfigArgs(rest []string, args *Args) {
	if len(rest) == 0 {
		args.Subcommand = "list"
		return
	}
	args.Subcommand = strings.ToLower(rest[0])
	if len(rest) > 1 {
		args.ConfigKey = rest[1]
	}
	if len(rest) > 2 {
		args.ConfigValue = strings.Join(rest[2:], " ")
	}
}

// Exit terminates the process with a code derived from err, printing
// the error first when non-nil.
func Exit(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[X]"), err)
	}
	os.Exit(GetExitCode(err))
}
