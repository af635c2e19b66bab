// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the plain-terminal
// front-ends for ollama-chatbot.
//
// The package owns everything outside the Bubble Tea TUI: argument
// parsing (hand-rolled, no flag package), the liner-based chat REPL,
// the one-shot ask command, model listing, and config get/set. All
// conversation state flows through chat.Session; this package only
// reads and displays it.
//
// Output is TTY-aware: markdown rendering and colors are applied only
// when stdout is a terminal, so piped output stays plain.
package cli
