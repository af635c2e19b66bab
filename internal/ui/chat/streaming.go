// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the Bubble Tea chat interface.
//
// This file batches streamed tokens so the viewport redraws at a capped
// frame rate instead of once per token. Fast local models can emit hundreds
// of tokens per second; rendering each one causes flicker and burns CPU.
package chat

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"
)

const (
	// defaultBatchSize is how many tokens accumulate before a flush is
	// allowed regardless of elapsed time.
	defaultBatchSize = 15

	// defaultMaxFPS caps how often time-based flushes may fire.
	defaultMaxFPS = 30
)

// streamTickInterval is the cadence of StreamTickMsg while streaming.
const streamTickInterval = time.Second / defaultMaxFPS

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer accumulates streamed tokens between viewport redraws.
// Write is called from the session's stream goroutine (via the tea loop's
// event delivery) and Flush from the Update loop on each StreamTickMsg, so
// all state is mutex-guarded.
//
// A flush happens when the batch size is reached, or when the rate limiter
// grants a time-based slot. The limiter keeps slow streams visually live
// (one token still appears within a frame) without letting fast streams
// redraw more than maxFPS times per second.
type StreamingBuffer struct {
	mu         sync.Mutex
	buffer     strings.Builder
	tokenCount int

	batchSize int
	limiter   *rate.Limiter
}

// NewStreamingBuffer creates a buffer with the default batch size and
// frame cap.
func NewStreamingBuffer() *StreamingBuffer {
	return NewStreamingBufferWithConfig(defaultBatchSize, defaultMaxFPS)
}

// NewStreamingBufferWithConfig creates a buffer with a custom batch size
// and frame cap. Out-of-range values fall back to the defaults.
func NewStreamingBufferWithConfig(batchSize, maxFPS int) *StreamingBuffer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = defaultMaxFPS
	}

	limiter := rate.NewLimiter(rate.Limit(maxFPS), 1)
	// Drain the initial burst token so the frame clock starts now rather
	// than granting a free flush on the first call.
	limiter.Allow()

	return &StreamingBuffer{
		batchSize: batchSize,
		limiter:   limiter,
	}
}

// Write appends a token to the pending batch.
func (sb *StreamingBuffer) Write(token string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.buffer.WriteString(token)
	sb.tokenCount++
}

// Flush drains the buffer if a flush is due. It returns the accumulated
// content and whether anything was flushed. An empty buffer never flushes
// and never consumes a limiter slot.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	if sb.tokenCount < sb.batchSize && !sb.limiter.Allow() {
		return "", false
	}
	return sb.drainLocked()
}

// ForceFlush drains the buffer unconditionally. Called when a stream
// reaches a terminal state so no trailing tokens are lost.
func (sb *StreamingBuffer) ForceFlush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	return sb.drainLocked()
}

// Reset discards pending tokens. Used when a stream is cancelled.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.buffer.Reset()
	sb.tokenCount = 0
}

// Pending returns the number of tokens waiting to be flushed.
func (sb *StreamingBuffer) Pending() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.tokenCount
}

// BatchSize returns the configured batch threshold.
func (sb *StreamingBuffer) BatchSize() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.batchSize
}

func (sb *StreamingBuffer) drainLocked() (string, bool) {
	content := sb.buffer.String()
	sb.buffer.Reset()
	sb.tokenCount = 0
	return content, true
}

// =============================================================================
// STREAMING TICK COMMAND
// =============================================================================

// streamTickCmd schedules the next StreamTickMsg. The Update loop re-arms
// it after each tick for as long as the session reports a stream in flight.
func streamTickCmd() tea.Cmd {
	return tea.Tick(streamTickInterval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
