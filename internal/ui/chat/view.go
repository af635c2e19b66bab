// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the Bubble Tea chat interface.
//
// This file contains all rendering: the transcript, the header, the input
// box, the status bar and the help overlay. Markdown rendering with glamour
// is applied only to completed assistant messages and cached per message;
// streaming and errored text is shown raw so partial markdown never flickers
// through the renderer.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/amitkumartech/ollama-chatbot/internal/model"
	"github.com/amitkumartech/ollama-chatbot/internal/ui/styles"
	"github.com/amitkumartech/ollama-chatbot/internal/util"
)

// Fixed chrome heights used by handleResize to size the viewport.
// The input box is bordered (1 content line + 2 border lines).
const (
	headerHeight = 1
	inputHeight  = 3
	statusHeight = 1
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// View renders the complete interface.
func (m Model) View() string {
	if !m.ready {
		return "Starting..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	sections := make([]string, 0, 4)
	if !m.compact {
		sections = append(sections, m.renderHeader())
	}
	sections = append(sections,
		m.viewport.View(),
		m.renderInput(),
		m.renderStatusBar(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("ollama-chatbot")
	// Long model tags (registry/name:variant-quant) get truncated before
	// they can collide with the title on narrow terminals.
	name := util.TruncateWidth(m.session.Model(), m.width/2)
	modelName := m.theme.HeaderModel.Render(name)

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(modelName)
	if gap < 1 {
		gap = 1
	}
	line := title + strings.Repeat(" ", gap) + modelName
	return m.theme.Header.Width(m.width).Render(line)
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width - 2).Render(m.input.View())
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTranscript renders every message in the conversation, oldest first.
func (m *Model) renderTranscript() string {
	messages := m.session.Messages()
	if len(messages) == 0 {
		return m.renderEmptyState()
	}

	var b strings.Builder
	for i := range messages {
		if i > 0 && !m.compact {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(&messages[i]))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderMessage(msg *model.Message) string {
	if msg.Role == model.RoleUser {
		return m.renderUserMessage(msg)
	}
	return m.renderAssistantMessage(msg)
}

func (m *Model) renderUserMessage(msg *model.Message) string {
	label := m.theme.UserLabel.Render(msg.Role.DisplayName())
	body := m.theme.UserText.Width(m.textWidth()).Render(msg.Content)
	return label + "\n" + body
}

func (m *Model) renderAssistantMessage(msg *model.Message) string {
	label := m.theme.AssistantLabel.Render(msg.Role.DisplayName())

	var body string
	switch msg.Status {
	case model.StatusStreaming:
		content := msg.GetDisplayContent()
		if content == "" {
			body = m.theme.ThinkingText.Render("Thinking ") + m.spinner.View()
		} else {
			body = m.theme.StreamingText.Width(m.textWidth()).Render(content) + " " + m.spinner.View()
		}

	case model.StatusErrored:
		body = m.theme.ErroredText.Width(m.textWidth()).Render(msg.Content)

	default:
		if m.markdown {
			body = m.renderMarkdown(msg.ID, msg.Content)
		} else {
			body = m.theme.AssistantText.Width(m.textWidth()).Render(msg.Content)
		}
		if m.showStats {
			if stats := msg.FormatStats(); stats != "" {
				body += "\n" + m.theme.MessageStats.Render(stats)
			}
		}
	}

	return label + "\n" + body
}

// renderMarkdown renders completed assistant content through glamour,
// caching the result per message. Falls back to raw text on any renderer
// error so a bad document never blanks the transcript.
func (m *Model) renderMarkdown(id, content string) string {
	if cached, ok := m.mdCache[id]; ok {
		return cached
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.glamourStyle()),
		glamour.WithWordWrap(m.textWidth()),
	)
	if err != nil {
		return m.theme.AssistantText.Width(m.textWidth()).Render(content)
	}

	out, err := renderer.Render(content)
	if err != nil {
		out = m.theme.AssistantText.Width(m.textWidth()).Render(content)
	} else {
		out = strings.TrimRight(out, "\n")
	}

	m.mdCache[id] = out
	return out
}

func (m *Model) glamourStyle() string {
	if m.theme.IsDark {
		return "dark"
	}
	return "light"
}

// textWidth is the wrap width for message bodies, leaving a small gutter.
func (m *Model) textWidth() int {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) renderEmptyState() string {
	lines := []string{
		m.theme.WelcomeLogo.Render("ollama-chatbot"),
		"",
		m.theme.WelcomeInfo.Render("Chat with a local model. Messages stream as they are generated."),
		m.theme.WelcomeInfo.Render("Type a prompt and press " + m.theme.WelcomeKey.Render("Enter") + " to begin."),
	}
	box := m.theme.WelcomeBox.Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.viewport.Width, m.viewport.Height, lipgloss.Center, lipgloss.Center, box)
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.statusMsg != "":
		left = m.theme.StatusBusy.Render(m.statusMsg)
	case m.session.IsStreaming():
		left = m.theme.StatusBusy.Render(styles.StatusIndicators.Active+" responding") + " " + m.spinner.View()
	case !m.ollamaUp:
		left = m.theme.StatusBusy.Render(styles.StatusIndicators.Error + " ollama offline")
	default:
		left = m.theme.StatusReady.Render(styles.StatusIndicators.Success + " ready")
	}

	right := m.renderContextUsage()
	if m.theme.GetLayoutMode() != styles.LayoutNarrow {
		hint := m.theme.ShortcutKey.Render("Enter") + m.theme.ShortcutDesc.Render(" send  ") +
			m.theme.ShortcutKey.Render("Esc") + m.theme.ShortcutDesc.Render(" cancel  ") +
			m.theme.ShortcutKey.Render("F1") + m.theme.ShortcutDesc.Render(" help")
		right = hint + "  " + right
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + right
	return m.theme.StatusBar.Width(m.width).Render(line)
}

// renderContextUsage shows the context window fill as a small bar.
func (m Model) renderContextUsage() string {
	percent := m.session.ContextPercent()
	bar := styles.RenderProgressBar(10, percent)
	text := fmt.Sprintf("%s %3.0f%%", bar, percent)
	if percent >= 80 {
		return m.theme.ContextWarn.Render(text)
	}
	return m.theme.ContextUsage.Render(text)
}

// =============================================================================
// HELP OVERLAY
// =============================================================================

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Keyboard shortcuts"))
	b.WriteString("\n\n")

	for _, group := range m.keys.FullHelp() {
		for _, binding := range group {
			help := binding.Help()
			b.WriteString(fmt.Sprintf("  %s  %s\n",
				m.theme.ShortcutKey.Render(util.PadRight(help.Key, 12)),
				m.theme.ShortcutDesc.Render(help.Desc)))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.theme.HeaderTitle.Render("Commands"))
	b.WriteString("\n\n")
	for _, c := range [][2]string{
		{"/model [name]", "show or switch the active model"},
		{"/clear", "clear the conversation"},
		{"/help", "show this help"},
		{"/quit", "exit"},
	} {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			m.theme.ShortcutKey.Render(util.PadRight(c[0], 14)),
			m.theme.ShortcutDesc.Render(c[1])))
	}

	b.WriteString("\n")
	b.WriteString(m.theme.ShortcutDesc.Render("Press any key to close."))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		m.theme.Container.Render(b.String()))
}
