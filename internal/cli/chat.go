// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Plain-terminal chat REPL.
//
// A line-oriented alternative to the TUI for users who want their
// scrollback, tmux copy-mode, and terminal search to keep working.
// Line editing and history come from liner; all conversation state
// lives in chat.Session, the same surface the TUI consumes.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/amitkumartech/ollama-chatbot/internal/chat"
	"github.com/amitkumartech/ollama-chatbot/internal/config"
	"github.com/amitkumartech/ollama-chatbot/internal/ollama"
	"github.com/amitkumartech/ollama-chatbot/internal/util"
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("213")).
				Bold(true)

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("156"))

	summaryHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true)
)

// historyFileName is stored under the config directory so REPL history
// survives restarts.
const historyFileName = "chat_history"

// =============================================================================
// LINE INPUT
// =============================================================================

// ChatCLI wraps liner with persistent history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates the line editor. History lives in the config
// directory, falling back to the OS temp dir when that is unavailable.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile := filepath.Join(os.TempDir(), historyFileName)
	if dir, err := config.ConfigDir(); err == nil {
		historyFile = filepath.Join(dir, historyFileName)
	}

	c := &ChatCLI{line: line, historyFile: historyFile}
	c.loadHistory()
	return c
}

func (c *ChatCLI) loadHistory() {
	f, err := os.Open(c.historyFile)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.ReadHistory(f)
}

// ReadInput prompts for one line, adding non-empty lines to history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists history to disk with owner-only permissions.
// The write is atomic so a crash mid-save cannot truncate history.
func (c *ChatCLI) SaveHistory() error {
	var buf strings.Builder
	if _, err := c.line.WriteHistory(&buf); err != nil {
		return fmt.Errorf("failed to serialize chat history: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(c.historyFile, []byte(buf.String()), 0600, 0700); err != nil {
		return fmt.Errorf("failed to save chat history: %w", err)
	}
	return nil
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// replState carries REPL toggles across the loop.
type replState struct {
	showStats bool
	noStream  bool
}

// HandleChat runs the chat REPL until the user exits.
func HandleChat(sess *chat.Session, client *ollama.Client, args Args) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	err := client.EnsureRunning(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("Ollama is not running (start it with: ollama serve): %w", err)
	}

	state := &replState{
		showStats: config.Global().UI.ShowStats,
		noStream:  args.NoStream || !config.Global().Server.Stream,
	}

	// Session events feed the streaming display. The buffer absorbs
	// bursts; the loop below drains it whenever a generation runs.
	events := make(chan chat.Event, 1024)
	sess.Subscribe(func(ev chat.Event) {
		events <- ev
	})

	// Ctrl+C at the prompt aborts via liner; Ctrl+C during a generation
	// arrives here as SIGINT and cancels it.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			sess.Cancel()
		}
	}()

	input := NewChatCLI()
	defer input.Close()

	printWelcome(sess.Model())

	prompt := promptStyle.Render("you> ")
	for {
		text, err := input.ReadInput(prompt)
		if err != nil {
			// Ctrl+C at the prompt (liner.ErrPromptAborted), Ctrl+D,
			// or a closed terminal all end the session.
			break
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if text == "exit" || text == "quit" {
			break
		}

		if strings.HasPrefix(text, "/") {
			keepGoing, err := handleSlashCommand(text, sess, client, state)
			if err != nil {
				fmt.Printf("%s %v\n", ErrorStyle.Render("[X]"), err)
			}
			if !keepGoing {
				break
			}
			continue
		}

		if err := processMessage(sess, events, text, state); err != nil {
			fmt.Printf("%s %v\n", ErrorStyle.Render("[X]"), err)
		}
	}

	printExitSummary(sess)
	return nil
}

// processMessage submits one prompt and displays the response.
func processMessage(sess *chat.Session, events chan chat.Event, text string, state *replState) error {
	drainEvents(events)

	if state.noStream {
		return processNonStreaming(sess, events, text, state)
	}

	if err := sess.Submit(text); err != nil {
		return err
	}

	fmt.Printf("\n%s\n", assistantLabelStyle.Render("assistant>"))

	for ev := range events {
		switch ev.Kind {
		case chat.EventChunkAppended:
			fmt.Print(ev.Delta)
		case chat.EventMessageCompleted:
			fmt.Println()
			printBriefStats(sess, state)
			fmt.Println()
			return nil
		case chat.EventMessageErrored:
			fmt.Println(ErrorStyle.Render(strings.TrimSpace(ev.Delta)))
			fmt.Println()
			return nil
		}
	}
	return nil
}

// processNonStreaming waits for the complete response, then renders it
// with code-block highlighting in one piece.
func processNonStreaming(sess *chat.Session, events chan chat.Event, text string, state *replState) error {
	fmt.Printf("\n%s thinking...\n", DimStyle.Render("..."))

	err := sess.Ask(context.Background(), text)
	drainEvents(events)
	if errors.Is(err, context.Canceled) {
		// Ctrl+C mid-generation; the turn already carries the marker.
		fmt.Println(DimStyle.Render("cancelled"))
		fmt.Println()
		return nil
	}
	if err != nil {
		return err
	}

	msgs := sess.Messages()
	if len(msgs) == 0 {
		return nil
	}
	last := msgs[len(msgs)-1]

	fmt.Printf("%s\n", assistantLabelStyle.Render("assistant>"))
	fmt.Println(HighlightCodeBlocks(last.Content))
	printBriefStats(sess, state)
	fmt.Println()
	return nil
}

// drainEvents empties pending events without blocking, so a new
// generation starts with a clean channel.
func drainEvents(events chan chat.Event) {
	for {
		select {
		case <-events:
		default:
			return
		}
	}
}

func printBriefStats(sess *chat.Session, state *replState) {
	if !state.showStats {
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

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand dispatches a /command. The first return value is
// false when the REPL should exit.
func handleSlashCommand(input string, sess *chat.Session, client *ollama.Client, state *replState) (bool, error) {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/help", "/h", "/?":
		printHelp()
		return true, nil

	case "/clear", "/c":
		sess.ClearHistory()
		fmt.Println(SuccessStyle.Render("Conversation cleared."))
		return true, nil

	case "/model", "/m":
		return true, handleModelCommand(sess, client, args)

	case "/models":
		return true, printModels(client, sess.Model())

	case "/stats":
		state.showStats = !state.showStats
		if state.showStats {
			fmt.Println("Response stats: on")
		} else {
			fmt.Println("Response stats: off")
		}
		return true, nil

	case "/status", "/s":
		printStatus(sess, client)
		return true, nil

	case "/title":
		handleTitleCommand(sess, args)
		return true, nil

	case "/history":
		printHistory(sess)
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	case "/":
		printHelp()
		return true, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", cmd)
	}
}

// handleModelCommand shows or switches the active model. An unknown
// model name warns but still switches; the server may pull it later.
func handleModelCommand(sess *chat.Session, client *ollama.Client, args []string) error {
	if len(args) == 0 {
		fmt.Printf("Current model: %s\n", HighlightStyle.Render(sess.Model()))
		fmt.Println(DimStyle.Render("Usage: /model <name> to switch, /models to list"))
		return nil
	}

	name := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := client.GetModel(ctx, name); err != nil {
		fmt.Printf("%s model %q not found on server, switching anyway\n",
			WarningStyle.Render("[!]"), name)
	}

	sess.SetModel(name)
	fmt.Printf("Switched to model: %s\n", HighlightStyle.Render(name))
	return nil
}

// maxTitleRunes caps user-set conversation titles.
const maxTitleRunes = 80

// handleTitleCommand shows or renames the conversation. Without an
// argument the current title is printed.
func handleTitleCommand(sess *chat.Session, args []string) {
	if len(args) == 0 {
		fmt.Printf("Title: %s\n", HighlightStyle.Render(sess.Meta().Title))
		fmt.Println(DimStyle.Render("Usage: /title <text> to rename"))
		return
	}

	title := util.TruncateRunesNoEllipsis(strings.Join(args, " "), maxTitleRunes)
	sess.SetTitle(title)
	fmt.Printf("Title set: %s\n", HighlightStyle.Render(title))
}

func printModels(client *ollama.Client, current string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	models, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	if len(models) == 0 {
		fmt.Println("No models installed. Pull one with: ollama pull <name>")
		return nil
	}

	fmt.Println()
	for _, m := range models {
		marker := "  "
		if m.Name == current {
			marker = HighlightStyle.Render("* ")
		}
		fmt.Printf("%s%-30s %s\n", marker, m.Name, DimStyle.Render(m.FormatSize()))
	}
	fmt.Println()
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

func printWelcome(model string) {
	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("ollama-chatbot " + Version))
	fmt.Printf("Model: %s\n", HighlightStyle.Render(model))
	fmt.Println(DimStyle.Render("Type /help for commands, Ctrl+C cancels a response, /quit exits."))
	fmt.Println()
}

func printHelp() {
	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Commands"))
	help := [][2]string{
		{"/help", "Show this help"},
		{"/model [name]", "Show or switch the active model"},
		{"/models", "List models on the server"},
		{"/clear", "Clear the conversation"},
		{"/stats", "Toggle per-response statistics"},
		{"/status", "Show session status"},
		{"/title [text]", "Show or set the conversation title"},
		{"/history", "Show the conversation so far"},
		{"/quit", "Exit"},
	}
	for _, h := range help {
		fmt.Printf("  %s %s\n", commandStyle.Render(fmt.Sprintf("%-15s", h[0])), h[1])
	}
	fmt.Println()
}

func printStatus(sess *chat.Session, client *ollama.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := SuccessStyle.Render("running")
	if err := client.CheckRunning(ctx); err != nil {
		server = ErrorStyle.Render("not running")
	}

	queries, tokens, elapsed := sess.Totals()
	meta := sess.Meta()

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session status"))
	fmt.Printf("  Server:   %s\n", server)
	fmt.Printf("  Title:    %s\n", meta.Title)
	fmt.Printf("  Model:    %s\n", meta.Model)
	fmt.Printf("  Messages: %d\n", meta.MessageCount)
	fmt.Printf("  Context:  %.0f%% used\n", sess.ContextPercent())
	fmt.Printf("  Queries:  %d (%s tokens, %s elapsed)\n",
		queries, formatNumber(tokens), elapsed.Round(time.Second))
	fmt.Println()
}

func printHistory(sess *chat.Session) {
	msgs := sess.Messages()
	if len(msgs) == 0 {
		fmt.Println(DimStyle.Render("No messages yet."))
		return
	}

	fmt.Println()
	for _, m := range msgs {
		label := m.Role.DisplayName()
		preview := util.TruncateRunes(m.Content, 100)
		fmt.Printf("  %s %s\n", commandStyle.Render(fmt.Sprintf("%-10s", label+":")), preview)
	}
	fmt.Println()
}

func printExitSummary(sess *chat.Session) {
	queries, tokens, elapsed := sess.Totals()

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session summary"))
	fmt.Printf("  Queries: %d\n", queries)
	fmt.Printf("  Tokens:  %s\n", formatNumber(tokens))
	fmt.Printf("  Time:    %s\n", elapsed.Round(time.Second))
	fmt.Println()
}
