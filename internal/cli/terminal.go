// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - TTY detection, width handling, and color capability.
//
// Piped or redirected output must stay machine-readable: no ANSI
// escapes, no markdown framing. Every display decision in this package
// funnels through IsStdoutTTY and ColorsEnabled.

package cli

import (
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	// DefaultTerminalWidth is assumed when width cannot be detected.
	DefaultTerminalWidth = 80
	// MinTerminalWidth is the floor for wrapping calculations.
	MinTerminalWidth = 40
)

// IsTTY reports whether the given file is a terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// IsStdoutTTY reports whether stdout is a terminal.
func IsStdoutTTY() bool {
	return IsTTY(os.Stdout)
}

// IsStderrTTY reports whether stderr is a terminal.
func IsStderrTTY() bool {
	return IsTTY(os.Stderr)
}

// GetTerminalSize returns the current terminal dimensions, falling back
// to 80x24 when stdout is not a terminal.
func GetTerminalSize() (width, height int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return DefaultTerminalWidth, 24
	}
	return w, h
}

// GetTerminalWidth returns the terminal width, clamped to
// MinTerminalWidth.
func GetTerminalWidth() int {
	w, _ := GetTerminalSize()
	if w < MinTerminalWidth {
		return MinTerminalWidth
	}
	return w
}

// WrapText word-wraps text to the given width. Words longer than the
// width are emitted on their own line rather than split.
func WrapText(text string, width int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var out strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(wrapLine(line, width))
	}
	return out.String()
}

func wrapLine(line string, width int) string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return line
	}

	var out strings.Builder
	lineLen := 0
	for _, word := range words {
		if lineLen > 0 && lineLen+1+len(word) > width {
			out.WriteString("\n")
			lineLen = 0
		} else if lineLen > 0 {
			out.WriteString(" ")
			lineLen++
		}
		out.WriteString(word)
		lineLen += len(word)
	}
	return out.String()
}

var (
	colorsOnce    sync.Once
	colorsEnabled bool
	plainMode     bool
)

// SetPlain forces colors and markdown off for the rest of the process.
// Called when --plain is given, before any output.
func SetPlain() {
	plainMode = true
}

// PlainMode reports whether --plain was given.
func PlainMode() bool {
	return plainMode
}

// ColorsEnabled reports whether ANSI colors should be emitted.
// Honors NO_COLOR and FORCE_COLOR (https://no-color.org/), otherwise
// requires stdout to be a terminal. The environment check runs once;
// --plain overrides everything.
func ColorsEnabled() bool {
	if plainMode {
		return false
	}
	colorsOnce.Do(func() {
		if os.Getenv("NO_COLOR") != "" {
			colorsEnabled = false
			return
		}
		if os.Getenv("FORCE_COLOR") != "" {
			colorsEnabled = true
			return
		}
		colorsEnabled = IsStdoutTTY()
	})
	return colorsEnabled
}

// GetColorProfile returns the termenv profile to use for styling.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}
