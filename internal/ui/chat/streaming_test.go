// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the Bubble Tea chat interface.
package chat

import (
	"testing"
	"time"
)

func TestNewStreamingBuffer(t *testing.T) {
	sb := NewStreamingBuffer()

	if sb == nil {
		t.Fatal("NewStreamingBuffer returned nil")
	}
	if sb.BatchSize() != defaultBatchSize {
		t.Errorf("expected default batch size %d, got %d", defaultBatchSize, sb.BatchSize())
	}
}

func TestStreamingBufferConfigFallback(t *testing.T) {
	sb := NewStreamingBufferWithConfig(-1, 500)
	if sb.BatchSize() != defaultBatchSize {
		t.Errorf("expected fallback batch size %d, got %d", defaultBatchSize, sb.BatchSize())
	}
}

func TestStreamingBufferWrite(t *testing.T) {
	sb := NewStreamingBuffer()

	sb.Write("Hello")
	sb.Write(" ")
	sb.Write("World")

	if pending := sb.Pending(); pending != 3 {
		t.Errorf("expected 3 pending tokens, got %d", pending)
	}
}

func TestStreamingBufferFlushBySize(t *testing.T) {
	sb := NewStreamingBufferWithConfig(3, 30)

	sb.Write("A")
	sb.Write("B")

	if _, flushed := sb.Flush(); flushed {
		t.Error("should not flush before reaching batch size")
	}

	sb.Write("C")

	content, flushed := sb.Flush()
	if !flushed {
		t.Fatal("should flush after reaching batch size")
	}
	if content != "ABC" {
		t.Errorf("expected flushed content %q, got %q", "ABC", content)
	}

	if pending := sb.Pending(); pending != 0 {
		t.Errorf("expected 0 pending tokens after flush, got %d", pending)
	}
}

func TestStreamingBufferFlushByTime(t *testing.T) {
	sb := NewStreamingBufferWithConfig(100, 30)

	sb.Write("A")

	// One frame at 30fps is ~33ms; wait past it and the limiter grants
	// a time-based flush even though the batch is far from full.
	time.Sleep(50 * time.Millisecond)

	content, flushed := sb.Flush()
	if !flushed {
		t.Fatal("should flush after the frame interval")
	}
	if content != "A" {
		t.Errorf("expected flushed content %q, got %q", "A", content)
	}
}

func TestStreamingBufferEmptyNeverFlushes(t *testing.T) {
	sb := NewStreamingBufferWithConfig(100, 30)

	time.Sleep(50 * time.Millisecond)

	if _, flushed := sb.Flush(); flushed {
		t.Error("empty buffer should not flush")
	}
	if _, flushed := sb.ForceFlush(); flushed {
		t.Error("empty buffer should not force flush")
	}
}

func TestStreamingBufferForceFlush(t *testing.T) {
	sb := NewStreamingBuffer()

	sb.Write("Test")

	content, flushed := sb.ForceFlush()
	if !flushed {
		t.Fatal("ForceFlush should return content")
	}
	if content != "Test" {
		t.Errorf("expected %q, got %q", "Test", content)
	}

	if pending := sb.Pending(); pending != 0 {
		t.Errorf("expected 0 pending after force flush, got %d", pending)
	}
}

func TestStreamingBufferReset(t *testing.T) {
	sb := NewStreamingBuffer()

	sb.Write("A")
	sb.Write("B")
	sb.Write("C")

	sb.Reset()

	if pending := sb.Pending(); pending != 0 {
		t.Errorf("expected 0 pending after reset, got %d", pending)
	}
	if _, flushed := sb.ForceFlush(); flushed {
		t.Error("reset buffer should have nothing to flush")
	}
}

func TestStreamingBufferConcurrentWrites(t *testing.T) {
	sb := NewStreamingBuffer()
	done := make(chan struct{})

	go func() {
		for i := 0; i < 100; i++ {
			sb.Write("x")
		}
		close(done)
	}()

	for i := 0; i < 100; i++ {
		sb.Write("y")
	}
	<-done

	content, flushed := sb.ForceFlush()
	if !flushed {
		t.Fatal("expected content after concurrent writes")
	}
	if len(content) != 200 {
		t.Errorf("expected 200 bytes, got %d", len(content))
	}
}
