// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the Bubble Tea chat interface.
//
// This file holds the Bubble Tea model and its Update loop. All mutation of
// the conversation goes through the session; the model only decides when to
// redraw and which keys mean what.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	session "github.com/amitkumartech/ollama-chatbot/internal/chat"
	"github.com/amitkumartech/ollama-chatbot/internal/ollama"
	"github.com/amitkumartech/ollama-chatbot/internal/ui/styles"
)

// statusLinger is how long a transient status line stays visible.
const statusLinger = 4 * time.Second

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat interface.
//
// The StreamingBuffer is a pointer because it holds a mutex and Bubble Tea
// copies the model on every update.
type Model struct {
	session *session.Session
	client  *ollama.Client
	theme   *styles.Theme
	keys    KeyMap

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	buffer *StreamingBuffer

	// Markdown render cache, keyed by message ID. Only terminal-state
	// messages are cached; the cache is dropped on resize.
	mdCache   map[string]string
	mdWidth   int
	showStats bool
	markdown  bool
	compact   bool
	stream    bool

	width  int
	height int
	ready  bool

	showHelp  bool
	ollamaUp  bool
	statusMsg string
	statusSeq int

	knownModels []string
}

// Options carries the UI and transport toggles from the config.
type Options struct {
	// ShowStats appends the per-message generation statistics line.
	ShowStats bool
	// Markdown renders completed assistant messages through glamour.
	Markdown bool
	// Compact drops the header row and tightens message spacing.
	Compact bool
	// Stream selects token-by-token generation; when false each turn
	// runs as a one-shot request.
	Stream bool
}

// New creates the chat interface over an existing session. The client is
// used only for the startup health check and model listing; all generation
// goes through the session.
func New(sess *session.Session, client *ollama.Client, theme *styles.Theme, opts Options) Model {
	input := textinput.New()
	input.Placeholder = "Ask anything. /help for commands."
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.TextStyle = theme.InputText
	input.PlaceholderStyle = theme.InputPlaceholder
	input.CharLimit = 0
	input.Focus()

	sp := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(theme.Spinner),
	)

	return Model{
		session:   sess,
		client:    client,
		theme:     theme,
		keys:      DefaultKeyMap(),
		input:     input,
		spinner:   sp,
		buffer:    NewStreamingBuffer(),
		mdCache:   make(map[string]string),
		showStats: opts.ShowStats,
		markdown:  opts.Markdown,
		compact:   opts.Compact,
		stream:    opts.Stream,
	}
}

// Init starts the input cursor blink and the Ollama health check.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		checkOllamaCmd(m.client),
		listModelsCmd(m.client),
	)
}

// =============================================================================
// UPDATE LOOP
// =============================================================================

// Update routes Bubble Tea messages to their handlers.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SessionEventMsg:
		return m.handleSessionEvent(msg)

	case StreamTickMsg:
		return m.handleStreamTick()

	case OllamaStatusMsg:
		m.ollamaUp = msg.Running
		if !msg.Running {
			return m.setStatus("ollama is not reachable - start it with 'ollama serve'")
		}
		return m, nil

	case OllamaModelsMsg:
		if msg.Err == nil {
			names := make([]string, 0, len(msg.Models))
			for _, info := range msg.Models {
				names = append(names, info.Name)
			}
			m.knownModels = names
		}
		return m, nil

	case askDoneMsg:
		return m.handleAskDone(msg)

	case statusClearMsg:
		if msg.seq == m.statusSeq {
			m.statusMsg = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.session.IsStreaming() {
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	// Header, input box and status bar claim fixed rows; the viewport
	// takes the rest. Compact mode gives the header row back.
	chromeHeight := headerHeight + inputHeight + statusHeight
	if m.compact {
		chromeHeight -= headerHeight
	}
	vpHeight := msg.Height - chromeHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.input.Width = msg.Width - 6

	// Wrap width changed, cached markdown is stale.
	m.mdCache = make(map[string]string)
	m.mdWidth = msg.Width

	m.refreshViewport(true)
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case msg.Type == tea.KeyCtrlC:
		if m.session.IsStreaming() {
			m.session.Cancel()
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.session.IsStreaming() {
			m.session.Cancel()
			return m, nil
		}
		m.input.Reset()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keys.Clear):
		return m.clearHistory()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil

	case msg.Type == tea.KeyUp:
		m.viewport.LineUp(1)
		return m, nil

	case msg.Type == tea.KeyDown:
		m.viewport.LineDown(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if strings.HasPrefix(text, "/") {
		return m.handleSlashCommand(text)
	}

	if !m.stream {
		if m.session.IsStreaming() {
			return m.setStatus("still responding - press Esc to cancel first")
		}
		m.input.Reset()
		return m, askCmd(m.session, text)
	}

	err := m.session.Submit(text)
	switch {
	case err == nil:
		m.input.Reset()
		return m, nil
	case ollama.IsBusy(err):
		return m.setStatus("still responding - press Esc to cancel first")
	case ollama.IsValidation(err):
		return m, nil
	default:
		return m.setStatus(err.Error())
	}
}

// askCmd runs a one-shot generation off the Update loop. Session events
// drive the transcript; the returned error only feeds the status line.
func askCmd(sess *session.Session, text string) tea.Cmd {
	return func() tea.Msg {
		return askDoneMsg{err: sess.Ask(context.Background(), text)}
	}
}

// handleAskDone surfaces one-shot failures that never reach the
// transcript. Generation errors arrive as session events, and a
// cancelled turn already carries its marker.
func (m Model) handleAskDone(msg askDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err == nil || errors.Is(msg.err, context.Canceled) {
		return m, nil
	}
	if ollama.IsBusy(msg.err) {
		return m.setStatus("still responding - press Esc to cancel first")
	}
	return m, nil
}

// handleSlashCommand runs the small built-in command set. Unknown commands
// produce a status hint instead of being sent to the model.
func (m Model) handleSlashCommand(text string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(text)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		m.input.Reset()
		m.showHelp = true
		return m, nil

	case "/clear":
		m.input.Reset()
		return m.clearHistory()

	case "/model":
		m.input.Reset()
		if len(args) == 0 {
			if len(m.knownModels) > 0 {
				return m.setStatus("installed: " + strings.Join(m.knownModels, ", "))
			}
			return m.setStatus(fmt.Sprintf("current model: %s", m.session.Model()))
		}
		if m.session.IsStreaming() {
			return m.setStatus("cannot switch models while responding")
		}
		m.session.SetModel(args[0])
		m.mdCache = make(map[string]string)
		return m.setStatus(fmt.Sprintf("model set to %s", args[0]))

	case "/quit", "/exit":
		return m, tea.Quit

	default:
		return m.setStatus(fmt.Sprintf("unknown command %s (try /help)", cmd))
	}
}

func (m Model) clearHistory() (tea.Model, tea.Cmd) {
	if m.session.IsStreaming() {
		return m.setStatus("cannot clear while responding")
	}
	m.session.ClearHistory()
	m.buffer.Reset()
	m.mdCache = make(map[string]string)
	m.refreshViewport(true)
	return m, nil
}

// =============================================================================
// SESSION EVENT HANDLING
// =============================================================================

func (m Model) handleSessionEvent(msg SessionEventMsg) (tea.Model, tea.Cmd) {
	switch msg.Event.Kind {
	case session.EventMessageAppended:
		m.refreshViewport(true)
		if m.session.IsStreaming() {
			return m, tea.Batch(m.spinner.Tick, streamTickCmd())
		}
		return m, nil

	case session.EventChunkAppended:
		// Tokens accumulate here; StreamTickMsg folds them into the
		// viewport at the frame cap.
		m.buffer.Write(msg.Event.Delta)
		return m, nil

	case session.EventMessageCompleted:
		m.buffer.ForceFlush()
		m.refreshViewport(true)
		return m, nil

	case session.EventMessageErrored:
		m.buffer.Reset()
		m.refreshViewport(true)
		return m, nil
	}
	return m, nil
}

func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if _, flushed := m.buffer.Flush(); flushed {
		m.refreshViewport(false)
	}
	if m.session.IsStreaming() {
		return m, streamTickCmd()
	}
	return m, nil
}

// refreshViewport rebuilds the transcript. When force is set or the user
// was already at the bottom, the viewport follows the newest content;
// otherwise their scroll position is left alone.
func (m *Model) refreshViewport(force bool) {
	if !m.ready {
		return
	}
	follow := force || m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if follow {
		m.viewport.GotoBottom()
	}
}

// setStatus shows a transient status line and schedules its expiry.
func (m Model) setStatus(text string) (tea.Model, tea.Cmd) {
	m.statusMsg = text
	m.statusSeq++
	seq := m.statusSeq
	return m, tea.Tick(statusLinger, func(time.Time) tea.Msg {
		return statusClearMsg{seq: seq}
	})
}

// =============================================================================
// COMMANDS
// =============================================================================

func checkOllamaCmd(client *ollama.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.CheckRunning(ctx); err != nil {
			return OllamaStatusMsg{Running: false, Err: err}
		}
		return OllamaStatusMsg{Running: true}
	}
}

func listModelsCmd(client *ollama.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		models, err := client.ListModels(ctx)
		return OllamaModelsMsg{Models: models, Err: err}
	}
}
