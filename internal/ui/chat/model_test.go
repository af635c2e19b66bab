// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the Bubble Tea chat interface.
package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	session "github.com/amitkumartech/ollama-chatbot/internal/chat"
	"github.com/amitkumartech/ollama-chatbot/internal/ollama"
	"github.com/amitkumartech/ollama-chatbot/internal/ui/styles"
)

// fakeStreamClient satisfies the session's client interface with a
// scriptable stream.
type fakeStreamClient struct {
	stream func(ctx context.Context, cb ollama.StreamCallback) error
}

func (f *fakeStreamClient) GenerateStream(ctx context.Context, model, prompt string, cb ollama.StreamCallback) error {
	return f.stream(ctx, cb)
}

func (f *fakeStreamClient) Generate(ctx context.Context, model, prompt string) (*ollama.GenerateResponse, error) {
	return &ollama.GenerateResponse{Response: "ok", Done: true}, nil
}

func newTestModel(t *testing.T, fc *fakeStreamClient) (Model, *session.Session, chan session.Event) {
	t.Helper()
	return newTestModelOpts(t, fc, Options{Markdown: true, Stream: true})
}

func newTestModelOpts(t *testing.T, fc *fakeStreamClient, opts Options) (Model, *session.Session, chan session.Event) {
	t.Helper()

	sess := session.NewSession(fc, "test-model")
	events := make(chan session.Event, 64)
	sess.Subscribe(func(ev session.Event) {
		select {
		case events <- ev:
		default:
		}
	})

	m := New(sess, ollama.NewClient(), styles.NewTheme("dark"), opts)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model), sess, events
}

func waitIdle(t *testing.T, sess *session.Session) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for sess.IsStreaming() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for stream to finish")
		}
		time.Sleep(time.Millisecond)
	}
}

// drainEvents feeds every pending session event through the Update loop,
// the way the program's subscriber would via Send.
func drainEvents(m Model, events chan session.Event) Model {
	for {
		select {
		case ev := <-events:
			updated, _ := m.Update(SessionEventMsg{Event: ev})
			m = updated.(Model)
		default:
			return m
		}
	}
}

func pressEnter(m Model) Model {
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model)
}

func TestModelSubmitStreamsResponse(t *testing.T) {
	fc := &fakeStreamClient{
		stream: func(ctx context.Context, cb ollama.StreamCallback) error {
			cb(ollama.StreamChunk{Content: "Hello"})
			cb(ollama.StreamChunk{Content: " there"})
			cb(ollama.StreamChunk{Done: true})
			return nil
		},
	}
	m, sess, events := newTestModel(t, fc)

	m.input.SetValue("hi")
	m = pressEnter(m)

	if got := m.input.Value(); got != "" {
		t.Errorf("input should clear on submit, got %q", got)
	}

	waitIdle(t, sess)
	m = drainEvents(m, events)

	if sess.MessageCount() != 2 {
		t.Fatalf("expected 2 messages, got %d", sess.MessageCount())
	}
	view := m.viewport.View()
	if !strings.Contains(view, "Hello") {
		t.Errorf("viewport should show the streamed response, got:\n%s", view)
	}
}

func TestModelSubmitWhileBusyShowsStatus(t *testing.T) {
	release := make(chan struct{})
	fc := &fakeStreamClient{
		stream: func(ctx context.Context, cb ollama.StreamCallback) error {
			cb(ollama.StreamChunk{Content: "partial"})
			<-release
			cb(ollama.StreamChunk{Done: true})
			return nil
		},
	}
	m, sess, events := newTestModel(t, fc)

	m.input.SetValue("first")
	m = pressEnter(m)
	m = drainEvents(m, events)

	m.input.SetValue("second")
	m = pressEnter(m)

	if m.statusMsg == "" {
		t.Error("submitting while busy should set a status hint")
	}
	if got := m.input.Value(); got != "second" {
		t.Errorf("rejected input should be kept, got %q", got)
	}

	close(release)
	waitIdle(t, sess)
}

func TestModelCancelKeyStopsStream(t *testing.T) {
	release := make(chan struct{})
	fc := &fakeStreamClient{
		stream: func(ctx context.Context, cb ollama.StreamCallback) error {
			cb(ollama.StreamChunk{Content: "partial"})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-release:
				return nil
			}
		},
	}
	m, sess, events := newTestModel(t, fc)
	defer close(release)

	m.input.SetValue("question")
	m = pressEnter(m)
	m = drainEvents(m, events)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)

	if sess.IsStreaming() {
		t.Error("escape should cancel the in-flight stream")
	}
	messages := sess.Messages()
	last := messages[len(messages)-1]
	if !strings.Contains(last.Content, "incomplete") {
		t.Errorf("cancelled message should carry the marker, got %q", last.Content)
	}
}

func TestModelEscClearsInputWhenIdle(t *testing.T) {
	m, _, _ := newTestModel(t, &fakeStreamClient{})

	m.input.SetValue("draft")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)

	if got := m.input.Value(); got != "" {
		t.Errorf("escape while idle should clear the input, got %q", got)
	}
}

func TestModelSlashModelSwitches(t *testing.T) {
	m, sess, _ := newTestModel(t, &fakeStreamClient{})

	m.input.SetValue("/model mistral")
	m = pressEnter(m)

	if got := sess.Model(); got != "mistral" {
		t.Errorf("expected model switch to mistral, got %q", got)
	}
	if m.statusMsg == "" {
		t.Error("model switch should confirm via status line")
	}
}

func TestModelSlashUnknownCommand(t *testing.T) {
	m, sess, _ := newTestModel(t, &fakeStreamClient{})

	m.input.SetValue("/bogus")
	m = pressEnter(m)

	if !strings.Contains(m.statusMsg, "unknown command") {
		t.Errorf("expected unknown command hint, got %q", m.statusMsg)
	}
	if sess.MessageCount() != 0 {
		t.Error("slash commands must not reach the model")
	}
}

func TestModelSlashClear(t *testing.T) {
	fc := &fakeStreamClient{
		stream: func(ctx context.Context, cb ollama.StreamCallback) error {
			cb(ollama.StreamChunk{Content: "answer"})
			cb(ollama.StreamChunk{Done: true})
			return nil
		},
	}
	m, sess, events := newTestModel(t, fc)

	m.input.SetValue("question")
	m = pressEnter(m)
	waitIdle(t, sess)
	m = drainEvents(m, events)

	m.input.SetValue("/clear")
	m = pressEnter(m)

	if sess.MessageCount() != 0 {
		t.Errorf("expected empty history after /clear, got %d messages", sess.MessageCount())
	}
}

func TestModelHelpToggle(t *testing.T) {
	m, _, _ := newTestModel(t, &fakeStreamClient{})

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyF1})
	m = updated.(Model)
	if !m.showHelp {
		t.Fatal("F1 should open the help overlay")
	}
	if !strings.Contains(m.View(), "Keyboard shortcuts") {
		t.Error("help overlay should list shortcuts")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	m = updated.(Model)
	if m.showHelp {
		t.Error("any key should close the help overlay")
	}
}

func TestModelChunkEventsBatchThroughBuffer(t *testing.T) {
	m, _, _ := newTestModel(t, &fakeStreamClient{})

	for _, delta := range []string{"a", "b", "c"} {
		updated, _ := m.Update(SessionEventMsg{Event: session.Event{
			Kind:  session.EventChunkAppended,
			Delta: delta,
		}})
		m = updated.(Model)
	}

	if pending := m.buffer.Pending(); pending != 3 {
		t.Errorf("expected 3 buffered tokens, got %d", pending)
	}
}

func TestModelMarkdownRendersOnlyCompletedMessages(t *testing.T) {
	release := make(chan struct{})
	fc := &fakeStreamClient{
		stream: func(ctx context.Context, cb ollama.StreamCallback) error {
			cb(ollama.StreamChunk{Content: "# heading"})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-release:
				cb(ollama.StreamChunk{Done: true})
				return nil
			}
		},
	}
	m, sess, events := newTestModel(t, fc)

	m.input.SetValue("question")
	m = pressEnter(m)
	m = drainEvents(m, events)

	if len(m.mdCache) != 0 {
		t.Errorf("streaming content should render raw, got %d cached entries", len(m.mdCache))
	}

	close(release)
	waitIdle(t, sess)
	m = drainEvents(m, events)

	if len(m.mdCache) != 1 {
		t.Errorf("completed message should be cached once, got %d entries", len(m.mdCache))
	}
}

func TestModelNonStreamingSubmitRunsOneShot(t *testing.T) {
	fc := &fakeStreamClient{}
	m, sess, events := newTestModelOpts(t, fc, Options{})

	m.input.SetValue("hi")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("non-streaming submit should return an ask command")
	}

	msg := cmd()
	done, ok := msg.(askDoneMsg)
	if !ok {
		t.Fatalf("command returned %T, want askDoneMsg", msg)
	}
	if done.err != nil {
		t.Fatalf("one-shot generation failed: %v", done.err)
	}

	m = drainEvents(m, events)
	msgs := sess.Messages()
	if len(msgs) != 2 || msgs[1].Content != "ok" {
		t.Fatalf("expected completed one-shot turn, got %+v", msgs)
	}
	if !strings.Contains(m.viewport.View(), "ok") {
		t.Error("viewport should show the one-shot response")
	}
}

func TestModelMarkdownDisabledRendersRaw(t *testing.T) {
	fc := &fakeStreamClient{
		stream: func(ctx context.Context, cb ollama.StreamCallback) error {
			cb(ollama.StreamChunk{Content: "# heading"})
			cb(ollama.StreamChunk{Done: true})
			return nil
		},
	}
	m, sess, events := newTestModelOpts(t, fc, Options{Stream: true})

	m.input.SetValue("question")
	m = pressEnter(m)
	waitIdle(t, sess)
	m = drainEvents(m, events)

	if len(m.mdCache) != 0 {
		t.Errorf("markdown off: nothing should be cached, got %d entries", len(m.mdCache))
	}
	if !strings.Contains(m.viewport.View(), "# heading") {
		t.Error("raw mode should keep the literal markdown text")
	}
}

func TestModelCompactDropsHeader(t *testing.T) {
	m, _, _ := newTestModelOpts(t, &fakeStreamClient{}, Options{Stream: true, Compact: true})

	if strings.Contains(m.View(), "ollama-chatbot") {
		t.Error("compact mode should not render the header row")
	}
}

func TestModelStatusClearIgnoresStaleTimer(t *testing.T) {
	m, _, _ := newTestModel(t, &fakeStreamClient{})

	m.input.SetValue("/bogus")
	m = pressEnter(m)
	seq := m.statusSeq

	// A timer from an earlier status must not clear a newer one.
	updated, _ := m.Update(statusClearMsg{seq: seq - 1})
	m = updated.(Model)
	if m.statusMsg == "" {
		t.Error("stale clear timer should be ignored")
	}

	updated, _ = m.Update(statusClearMsg{seq: seq})
	m = updated.(Model)
	if m.statusMsg != "" {
		t.Error("matching clear timer should clear the status")
	}
}
