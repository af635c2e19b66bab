// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command.
//
// Reads a question from argv or a pipe, streams the answer, and exits.
// When stdout is a terminal the complete answer is rendered as
// markdown; piped output stays plain so it composes with other tools.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/amitkumartech/ollama-chatbot/internal/chat"
	"github.com/amitkumartech/ollama-chatbot/internal/config"
	"github.com/amitkumartech/ollama-chatbot/internal/ollama"
)

// MaxFileSize caps --file context so a stray path cannot blow the
// prompt out of the context window.
const MaxFileSize = 50 * 1024

const markdownWrapWidth = 80

var (
	markdownOnce     sync.Once
	markdownRenderer *glamour.TermRenderer
)

// renderMarkdown renders markdown for terminal display, falling back to
// the raw text when the renderer is unavailable.
func renderMarkdown(content string) string {
	markdownOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(markdownWrapWidth),
		)
		if err == nil {
			markdownRenderer = r
		}
	})

	if markdownRenderer == nil {
		return content
	}
	out, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n") + "\n"
}

// HandleAsk answers a single question and exits.
func HandleAsk(sess *chat.Session, client *ollama.Client, args Args) error {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		query = readStdinQuery()
	}
	if query == "" {
		return ollama.ErrEmptyPrompt
	}

	prompt := query
	if args.File != "" {
		fileContext, err := readFileForContext(args.File)
		if err != nil {
			return err
		}
		prompt = fileContext + "\n\n" + query
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	err := client.EnsureRunning(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("Ollama is not running (start it with: ollama serve): %w", err)
	}

	useMarkdown := IsStdoutTTY() && !PlainMode() && config.Global().UI.Markdown

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			sess.Cancel()
		}
	}()

	if args.NoStream || !config.Global().Server.Stream {
		err := sess.Ask(context.Background(), prompt)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		displayAnswer(lastContent(sess), useMarkdown)
		displayStats(sess)
		return nil
	}

	events := make(chan chat.Event, 1024)
	sess.Subscribe(func(ev chat.Event) {
		events <- ev
	})

	if err := sess.Submit(prompt); err != nil {
		return err
	}

	// With markdown the answer is collected and rendered whole; raw
	// mode streams tokens to stdout as they arrive.
	for ev := range events {
		switch ev.Kind {
		case chat.EventChunkAppended:
			if !useMarkdown {
				fmt.Print(ev.Delta)
			}
		case chat.EventMessageCompleted:
			if useMarkdown {
				displayAnswer(lastContent(sess), true)
			} else {
				fmt.Println()
			}
			displayStats(sess)
			return nil
		case chat.EventMessageErrored:
			if !useMarkdown {
				fmt.Println()
			}
			return fmt.Errorf("generation failed: %s", markerText(ev.Delta))
		}
	}
	return nil
}

// readStdinQuery reads a piped question from stdin. Returns empty when
// stdin is a terminal.
func readStdinQuery() string {
	stat, err := os.Stdin.Stat()
	if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
		return ""
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readFileForContext reads a file for inclusion in the prompt, framed
// so the model can tell file content from the question.
func readFileForContext(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot read file %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("file %s is too large (%d bytes, max %d)", path, info.Size(), MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read file %s: %w", path, err)
	}

	return fmt.Sprintf("--- File: %s ---\n%s\n--- End of file ---", path, string(data)), nil
}

func lastContent(sess *chat.Session) string {
	msgs := sess.Messages()
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Content
}

func displayAnswer(content string, useMarkdown bool) {
	if useMarkdown {
		fmt.Print(renderMarkdown(content))
		return
	}
	fmt.Println(content)
}

func displayStats(sess *chat.Session) {
	if !IsStdoutTTY() || !config.Global().UI.ShowStats {
		return
	}
	msgs := sess.Messages()
	if len(msgs) == 0 {
		return
	}
	if stats := msgs[len(msgs)-1].FormatStats(); stats != "" {
		fmt.Println(DimStyle.Render(stats))
	}
}

// markerText strips the inline failure marker framing, leaving the
// error text.
func markerText(delta string) string {
	s := strings.TrimSpace(delta)
	s = strings.TrimPrefix(s, "[error: ")
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	return s
}

// formatNumber renders an integer with comma grouping.
func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var out strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		out.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if out.Len() > 0 {
			out.WriteString(",")
		}
		out.WriteString(s[i : i+3])
	}
	return out.String()
}
