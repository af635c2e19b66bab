// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amitkumartech/ollama-chatbot/internal/model"
	"github.com/amitkumartech/ollama-chatbot/internal/ollama"
)

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies the kind of log mutation an Event reports.
type EventKind int

const (
	// EventMessageAppended fires when a new message joins the log.
	EventMessageAppended EventKind = iota
	// EventChunkAppended fires after a chunk is appended to the streaming
	// assistant message. Delta carries the chunk text, possibly empty.
	EventChunkAppended
	// EventMessageCompleted fires when the assistant message finishes.
	EventMessageCompleted
	// EventMessageErrored fires when the assistant message fails or is
	// cancelled. Delta carries the appended failure marker.
	EventMessageErrored
)

// Event describes one conversation log mutation.
type Event struct {
	Kind      EventKind
	MessageID string
	Delta     string
}

// Subscriber receives change notifications. Subscribers run on the
// session's streaming goroutine and must not block; they may call back
// into the session (Messages, Cancel) freely.
type Subscriber func(Event)

// =============================================================================
// CLIENT INTERFACE
// =============================================================================

// Client is the slice of the Ollama client the session needs.
// *ollama.Client satisfies it.
type Client interface {
	GenerateStream(ctx context.Context, model, prompt string, callback ollama.StreamCallback) error
	Generate(ctx context.Context, model, prompt string) (*ollama.GenerateResponse, error)
}

// =============================================================================
// SESSION
// =============================================================================

// Markers appended to an assistant message that ends abnormally. Content
// streamed before the failure is always kept; the marker follows it.
const (
	errorMarkerPrefix = "\n[error: "
	errorMarkerSuffix = "]"
	cancelledMarker   = "\n[incomplete - cancelled]"
)

// Session owns one conversation and orchestrates generations against it.
//
// All log mutations happen under the session mutex, one chunk at a time,
// and every mutation is followed by a subscriber notification. Submissions
// are single-flight: Submit and Ask reject with ollama.ErrBusy while a
// generation is in progress. Late chunks from a cancelled or superseded
// stream are discarded by stream ID comparison before any mutation.
type Session struct {
	mu     sync.Mutex
	conv   *model.Conversation
	client Client

	// streamID is non-empty exactly while a generation owns the log.
	// Every decoder callback compares its own ID against it before
	// touching the conversation.
	streamID string
	cancel   context.CancelFunc

	subs []Subscriber

	// Session totals
	startTime   time.Time
	queries     int
	totalTokens int
}

// NewSession creates a session around a fresh conversation.
func NewSession(client Client, modelName string) *Session {
	return &Session{
		conv:      model.NewConversationWithModel(modelName),
		client:    client,
		startTime: time.Now(),
	}
}

// Subscribe registers a change-notification callback. Subscribers are
// notified after every log mutation, in registration order.
func (s *Session) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// notify fans an event out to subscribers. Called after the mutex is
// released so subscribers can read the session without deadlocking.
func (s *Session) notify(ev Event) {
	s.mu.Lock()
	subs := make([]Subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit starts a streaming generation for the given prompt.
//
// The prompt is trimmed; an empty result is rejected with
// ollama.ErrEmptyPrompt before any state change or network activity. If a
// generation is already in flight the call is rejected with
// ollama.ErrBusy, again with no state change. Otherwise a complete user
// message and a streaming assistant message are appended and the decoder
// starts in its own goroutine; Submit returns immediately.
func (s *Session) Submit(text string) error {
	prompt := strings.TrimSpace(text)
	if prompt == "" {
		return ollama.ErrEmptyPrompt
	}

	s.mu.Lock()
	if s.streamID != "" {
		s.mu.Unlock()
		return ollama.ErrBusy
	}

	userMsg := s.conv.AddUserMessage(prompt)
	botMsg := s.conv.AddAssistantMessage()

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	s.streamID = id
	s.cancel = cancel
	s.queries++
	modelName := s.conv.Model
	s.mu.Unlock()

	s.notify(Event{Kind: EventMessageAppended, MessageID: userMsg.ID})
	s.notify(Event{Kind: EventMessageAppended, MessageID: botMsg.ID})

	slog.Debug("submission accepted", "stream_id", id, "model", modelName)

	go s.runStream(ctx, cancel, id, botMsg.ID, modelName, prompt)

	return nil
}

// runStream drives one streaming generation to a terminal state.
func (s *Session) runStream(ctx context.Context, cancel context.CancelFunc, id, msgID, modelName, prompt string) {
	defer cancel()

	stats := ollama.NewStreamStats()

	err := s.client.GenerateStream(ctx, modelName, prompt, func(chunk ollama.StreamChunk) {
		s.applyChunk(id, msgID, chunk, stats)
	})

	if err != nil {
		s.finishErrored(id, msgID, err)
		return
	}
	s.finishComplete(id, msgID, stats)
}

// applyChunk appends one chunk to the streaming assistant message.
// Chunks are applied verbatim, in receive order, one at a time under the
// mutex; empty chunks still produce a notification so renderers observe
// the server's exact cadence. Chunks from a stream that no longer owns
// the log are dropped.
func (s *Session) applyChunk(id, msgID string, chunk ollama.StreamChunk, stats *ollama.StreamStats) {
	s.mu.Lock()
	if s.streamID != id {
		s.mu.Unlock()
		return
	}
	if chunk.Content != "" {
		stats.RecordFirstToken()
	}
	s.conv.AppendToLast(chunk.Content)
	if chunk.Done {
		stats.Finalize(chunk)
	}
	s.mu.Unlock()

	s.notify(Event{Kind: EventChunkAppended, MessageID: msgID, Delta: chunk.Content})
}

// finishComplete moves the assistant message to its complete state.
func (s *Session) finishComplete(id, msgID string, stats *ollama.StreamStats) {
	s.mu.Lock()
	if s.streamID != id {
		s.mu.Unlock()
		return
	}
	s.conv.FinalizeLast(toStatistics(stats))
	s.totalTokens += stats.PromptTokens + stats.CompletionTokens
	s.streamID = ""
	s.cancel = nil
	s.mu.Unlock()

	slog.Debug("stream complete", "stream_id", id, "tokens", stats.CompletionTokens)
	s.notify(Event{Kind: EventMessageCompleted, MessageID: msgID})
}

// finishErrored moves the assistant message to its errored state,
// appending a marker after whatever content already streamed. Decoder
// failures never escape the session; they end here as a status
// transition plus a notification.
func (s *Session) finishErrored(id, msgID string, err error) {
	marker := errorMarkerPrefix + err.Error() + errorMarkerSuffix

	s.mu.Lock()
	if s.streamID != id {
		// Cancel already finalized the message; a late error from the
		// torn-down stream must not touch the log.
		s.mu.Unlock()
		return
	}
	s.conv.FailLast(marker)
	s.streamID = ""
	s.cancel = nil
	s.mu.Unlock()

	slog.Warn("stream failed", "stream_id", id, "err", err)
	s.notify(Event{Kind: EventMessageErrored, MessageID: msgID, Delta: marker})
}

// =============================================================================
// NON-STREAMING SUBMISSION
// =============================================================================

// Ask runs a one-shot, non-streaming generation: the whole response
// arrives in a single body and the assistant message goes straight to
// complete. Validation and single-flight rules match Submit. Ask blocks
// until the response arrives, fails, or ctx is cancelled. Cancel aborts
// the in-flight request; the turn is finalized with the cancelled marker
// and Ask reports context.Canceled.
func (s *Session) Ask(ctx context.Context, text string) error {
	prompt := strings.TrimSpace(text)
	if prompt == "" {
		return ollama.ErrEmptyPrompt
	}

	s.mu.Lock()
	if s.streamID != "" {
		s.mu.Unlock()
		return ollama.ErrBusy
	}

	userMsg := s.conv.AddUserMessage(prompt)
	botMsg := s.conv.AddAssistantMessage()

	id := uuid.NewString()
	genCtx, cancel := context.WithCancel(ctx)
	s.streamID = id
	s.cancel = cancel
	s.queries++
	modelName := s.conv.Model
	s.mu.Unlock()

	s.notify(Event{Kind: EventMessageAppended, MessageID: userMsg.ID})
	s.notify(Event{Kind: EventMessageAppended, MessageID: botMsg.ID})

	start := time.Now()
	resp, err := s.client.Generate(genCtx, modelName, prompt)
	cancel()
	if err != nil {
		s.mu.Lock()
		interrupted := s.streamID != id
		s.mu.Unlock()
		if interrupted {
			// Cancel already finalized the turn; report the interruption,
			// not the aborted request's transport error.
			return context.Canceled
		}
		s.finishErrored(id, botMsg.ID, err)
		return err
	}

	s.mu.Lock()
	if s.streamID != id {
		s.mu.Unlock()
		return context.Canceled
	}
	s.conv.AppendToLast(resp.Response)
	s.conv.FinalizeLast(&model.Statistics{
		StartTime:        start,
		EndTime:          time.Now(),
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TTFT:             resp.TTFT(),
		TotalDuration:    resp.TotalTime(),
		TokensPerSecond:  resp.TokensPerSecond(),
	})
	s.totalTokens += resp.PromptEvalCount + resp.EvalCount
	s.streamID = ""
	s.cancel = nil
	s.mu.Unlock()

	s.notify(Event{Kind: EventMessageCompleted, MessageID: botMsg.ID})
	return nil
}

// =============================================================================
// CANCELLATION
// =============================================================================

// Cancel aborts the in-flight generation, if any. The assistant message
// is finalized immediately: streamed content stays, a cancelled marker is
// appended, and the status becomes terminal. Anything the cancelled
// decoder still delivers afterwards is discarded. Safe to call when
// nothing is streaming.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.streamID == "" {
		s.mu.Unlock()
		return
	}
	id := s.streamID
	if s.cancel != nil {
		s.cancel()
	}
	var msgID string
	if last := s.conv.GetLastMessage(); last != nil {
		msgID = last.ID
	}
	s.conv.FailLast(cancelledMarker)
	s.streamID = ""
	s.cancel = nil
	s.mu.Unlock()

	slog.Debug("stream cancelled", "stream_id", id)
	s.notify(Event{Kind: EventMessageErrored, MessageID: msgID, Delta: cancelledMarker})
}

// =============================================================================
// READ ACCESS
// =============================================================================

// Messages returns a snapshot of the conversation, safe for renderers.
// Streaming content is folded into each copy's Content field.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Snapshot()
}

// MessageCount returns the number of messages in the log.
func (s *Session) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.MessageCount()
}

// IsStreaming reports whether a generation is in flight.
func (s *Session) IsStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamID != ""
}

// Meta returns a metadata snapshot: title, model, message count, and
// timestamps. The title defaults to a preview of the first user message.
func (s *Session) Meta() model.ConversationMeta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.GetMeta()
}

// SetTitle names the conversation, replacing the auto-generated title.
func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conv.SetTitle(title)
}

// Model returns the model used for subsequent submissions.
func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Model
}

// SetModel switches the model for subsequent submissions. The in-flight
// generation, if any, keeps the model it started with.
func (s *Session) SetModel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conv.SetModel(name)
}

// ClearHistory drops all messages and starts a fresh log. No-op while a
// generation is in flight.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamID != "" {
		return
	}
	s.conv.ClearHistory()
}

// Totals returns session-wide counters for status displays.
func (s *Session) Totals() (queries, tokens int, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries, s.totalTokens, time.Since(s.startTime)
}

// ContextPercent returns the estimated share of the context window used.
func (s *Session) ContextPercent() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.GetContextPercent()
}

// toStatistics converts stream statistics to message statistics. A stream
// that ended at EOF without a done record has no server-reported timings;
// wall-clock duration stands in.
func toStatistics(stats *ollama.StreamStats) *model.Statistics {
	total := stats.TotalDuration
	if total == 0 {
		total = time.Since(stats.StartTime)
	}
	return &model.Statistics{
		StartTime:        stats.StartTime,
		FirstTokenTime:   stats.FirstTokenTime,
		EndTime:          stats.EndTime,
		PromptTokens:     stats.PromptTokens,
		CompletionTokens: stats.CompletionTokens,
		TTFT:             stats.TTFT,
		TotalDuration:    total,
		TokensPerSecond:  stats.TokensPerSecond,
	}
}
