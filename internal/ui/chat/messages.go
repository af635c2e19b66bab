// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the Bubble Tea chat interface.
//
// This file defines the Bubble Tea message types the interface reacts to.
package chat

import (
	"time"

	session "github.com/amitkumartech/ollama-chatbot/internal/chat"
	"github.com/amitkumartech/ollama-chatbot/internal/ollama"
)

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// SessionEventMsg wraps a session event for delivery into the Update loop.
// The session's stream goroutine publishes events through a subscriber that
// calls tea.Program.Send, so every event crosses into the single-threaded
// tea loop before any model state is touched.
type SessionEventMsg struct {
	Event session.Event
}

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamTickMsg is sent at a capped frame rate while a response is
// streaming. Each tick drains the StreamingBuffer into the viewport,
// batching token renders instead of redrawing per token.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// OLLAMA MESSAGES
// =============================================================================

// OllamaStatusMsg reports the result of the startup health check.
type OllamaStatusMsg struct {
	Running bool
	Err     error
}

// OllamaModelsMsg delivers the installed model list for /model completion.
type OllamaModelsMsg struct {
	Models []ollama.ModelInfo
	Err    error
}

// =============================================================================
// UI STATE MESSAGES
// =============================================================================

// statusClearMsg expires a transient status line. The sequence number
// guards against an old timer clearing a newer status.
type statusClearMsg struct {
	seq int
}

// askDoneMsg reports the outcome of a one-shot (non-streaming) turn.
type askDoneMsg struct {
	err error
}
