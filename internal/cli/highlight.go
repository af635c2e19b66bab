// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// highlight.go - Syntax highlighting for fenced code blocks in
// plain-terminal responses. Streamed output is printed raw as it
// arrives; highlighting applies only to complete responses.

package cli

import (
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

const highlightStyle = "monokai"

// HighlightCodeBlocks renders fenced code blocks in text with ANSI
// syntax highlighting. Prose passes through untouched. When colors are
// disabled the text is returned as-is.
func HighlightCodeBlocks(text string) string {
	if !ColorsEnabled() {
		return text
	}
	if !strings.Contains(text, "```") {
		return text
	}

	var out strings.Builder
	lines := strings.Split(text, "\n")

	inBlock := false
	lang := ""
	var code []string

	flush := func() {
		source := strings.Join(code, "\n")
		out.WriteString(highlightSource(source, lang))
		if !strings.HasSuffix(source, "\n") {
			out.WriteString("\n")
		}
		code = code[:0]
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inBlock {
				flush()
				inBlock = false
				continue
			}
			inBlock = true
			lang = strings.TrimPrefix(trimmed, "```")
			continue
		}
		if inBlock {
			code = append(code, line)
			continue
		}
		out.WriteString(line)
		out.WriteString("\n")
	}

	// Unterminated fence: highlight what we have rather than drop it.
	if inBlock && len(code) > 0 {
		flush()
	}

	return strings.TrimSuffix(out.String(), "\n")
}

// highlightSource highlights one code block, falling back to the raw
// source when the lexer or formatter fails.
func highlightSource(source, lang string) string {
	if lang == "" {
		lang = "text"
	}

	var buf strings.Builder
	if err := quick.Highlight(&buf, source, lang, "terminal256", highlightStyle); err != nil {
		return source
	}
	return buf.String()
}
