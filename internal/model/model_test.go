// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"sort"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("Hello")

	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want user", msg.Role)
	}
	if msg.Status != StatusComplete {
		t.Errorf("Status = %q, user messages are born complete", msg.Status)
	}
	if msg.Content != "Hello" {
		t.Errorf("Content = %q", msg.Content)
	}
	if msg.ID == "" {
		t.Error("ID should be generated")
	}
}

func TestNewAssistantMessage(t *testing.T) {
	msg := NewAssistantMessage()

	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want assistant", msg.Role)
	}
	if msg.Status != StatusStreaming {
		t.Errorf("Status = %q, want streaming", msg.Status)
	}
	if !msg.IsStreaming() {
		t.Error("IsStreaming() should be true")
	}
}

func TestMessage_AppendAndFinalize(t *testing.T) {
	msg := NewAssistantMessage()

	msg.AppendToken("Why")
	msg.AppendToken(" did...")
	msg.AppendToken(" yet.")

	if got := msg.GetDisplayContent(); got != "Why did... yet." {
		t.Errorf("display content = %q", got)
	}

	msg.FinalizeStream(nil)

	if msg.Status != StatusComplete {
		t.Errorf("Status = %q, want complete", msg.Status)
	}
	if msg.Content != "Why did... yet." {
		t.Errorf("Content = %q, stream content should fold verbatim", msg.Content)
	}
}

func TestMessage_AppendVerbatim(t *testing.T) {
	msg := NewAssistantMessage()

	// Whitespace and empty tokens must survive untouched.
	msg.AppendToken("  a\n")
	msg.AppendToken("")
	msg.AppendToken("\tb  ")
	msg.FinalizeStream(nil)

	if msg.Content != "  a\n\tb  " {
		t.Errorf("Content = %q, tokens must not be trimmed or reformatted", msg.Content)
	}
}

func TestMessage_TerminalStatesIgnoreAppends(t *testing.T) {
	msg := NewAssistantMessage()
	msg.AppendToken("done")
	msg.FinalizeStream(nil)

	msg.AppendToken(" extra")
	if msg.Content != "done" {
		t.Errorf("Content = %q, appends after finalize must be ignored", msg.Content)
	}

	msg.FailStream(" [error]")
	if msg.Status != StatusComplete {
		t.Error("a complete message must not transition to errored")
	}
}

func TestMessage_FailStream(t *testing.T) {
	msg := NewAssistantMessage()
	msg.AppendToken("Hel")

	msg.FailStream(" [error: connection lost]")

	if msg.Status != StatusErrored {
		t.Errorf("Status = %q, want errored", msg.Status)
	}
	if !strings.HasPrefix(msg.Content, "Hel") {
		t.Errorf("Content = %q, streamed content must be preserved", msg.Content)
	}
	if !strings.HasSuffix(msg.Content, "[error: connection lost]") {
		t.Errorf("Content = %q, marker must be appended at the end", msg.Content)
	}
}

func TestMessage_SetComplete(t *testing.T) {
	msg := NewAssistantMessage()
	msg.SetComplete("full response at once")

	if msg.Status != StatusComplete {
		t.Errorf("Status = %q, want complete", msg.Status)
	}
	if msg.Content != "full response at once" {
		t.Errorf("Content = %q", msg.Content)
	}
}

func TestMessage_FinalizeWithStats(t *testing.T) {
	msg := NewAssistantMessage()
	msg.AppendToken("hi")

	stats := &Statistics{
		TTFT:             200 * time.Millisecond,
		TotalDuration:    2 * time.Second,
		CompletionTokens: 42,
		TokensPerSecond:  21.0,
	}
	msg.FinalizeStream(stats)

	if msg.TokenCount != 42 || msg.TTFT != 200*time.Millisecond {
		t.Errorf("stats not applied: %+v", msg)
	}

	formatted := msg.FormatStats()
	if !strings.Contains(formatted, "42 tokens") {
		t.Errorf("FormatStats() = %q", formatted)
	}
}

func TestMessage_Snapshot(t *testing.T) {
	msg := NewAssistantMessage()
	msg.AppendToken("partial")

	snap := msg.Snapshot()
	if snap.Content != "partial" {
		t.Errorf("snapshot Content = %q, streaming content should be folded in", snap.Content)
	}
	if snap.Status != StatusStreaming {
		t.Errorf("snapshot Status = %q", snap.Status)
	}

	// Mutating the original must not affect the snapshot.
	msg.AppendToken(" more")
	if snap.Content != "partial" {
		t.Error("snapshot should be independent of the live message")
	}
}

func TestMessage_Preview(t *testing.T) {
	msg := NewUserMessage("héllo wörld, this is a long message for preview truncation")
	preview := msg.Preview(10)

	if len([]rune(preview)) > 10 {
		t.Errorf("Preview = %q, too long", preview)
	}
	if !strings.HasSuffix(preview, "...") {
		t.Errorf("Preview = %q, want ellipsis", preview)
	}

	short := NewUserMessage("hi")
	if short.Preview(10) != "hi" {
		t.Errorf("short Preview = %q", short.Preview(10))
	}
}

// =============================================================================
// STATUS TESTS
// =============================================================================

func TestStatus_Terminal(t *testing.T) {
	if StatusStreaming.Terminal() {
		t.Error("streaming is not terminal")
	}
	if !StatusComplete.Terminal() || !StatusErrored.Terminal() {
		t.Error("complete and errored are terminal")
	}
}

// =============================================================================
// STATISTICS TESTS
// =============================================================================

func TestStatistics_Lifecycle(t *testing.T) {
	stats := NewStatistics()
	stats.RecordFirstToken()
	first := stats.FirstTokenTime

	stats.RecordFirstToken()
	if !stats.FirstTokenTime.Equal(first) {
		t.Error("RecordFirstToken should be idempotent")
	}

	stats.Finalize(100)
	if stats.CompletionTokens != 100 {
		t.Errorf("CompletionTokens = %d", stats.CompletionTokens)
	}
	if stats.TotalDuration <= 0 {
		t.Error("TotalDuration should be positive")
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_AppendOnlyOrdering(t *testing.T) {
	conv := NewConversation()

	conv.AddUserMessage("first")
	conv.AddAssistantMessage()
	conv.FinalizeLast(nil)
	conv.AddUserMessage("second")

	if conv.MessageCount() != 3 {
		t.Fatalf("MessageCount() = %d, want 3", conv.MessageCount())
	}

	roles := []Role{RoleUser, RoleAssistant, RoleUser}
	for i, want := range roles {
		if conv.Messages[i].Role != want {
			t.Errorf("Messages[%d].Role = %q, want %q", i, conv.Messages[i].Role, want)
		}
	}
	if conv.Messages[0].Content != "first" || conv.Messages[2].Content != "second" {
		t.Error("insertion order must be preserved")
	}
}

func TestConversation_StreamingFlow(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("Tell me a joke.")
	conv.AddAssistantMessage()

	if !conv.HasStreamingMessage() {
		t.Fatal("HasStreamingMessage() should be true")
	}

	conv.AppendToLast("Why")
	conv.AppendToLast(" did...")
	conv.AppendToLast(" yet.")
	conv.FinalizeLast(nil)

	if conv.HasStreamingMessage() {
		t.Error("HasStreamingMessage() should be false after finalize")
	}

	last := conv.GetLastMessage()
	if last.Content != "Why did... yet." {
		t.Errorf("Content = %q", last.Content)
	}
	if last.Status != StatusComplete {
		t.Errorf("Status = %q", last.Status)
	}
}

func TestConversation_FailLast(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("Say hi")
	conv.AddAssistantMessage()
	conv.AppendToLast("Hel")

	conv.FailLast(" [error: connection lost]")

	last := conv.GetLastMessage()
	if last.Status != StatusErrored {
		t.Errorf("Status = %q, want errored", last.Status)
	}
	if !strings.HasPrefix(last.Content, "Hel") {
		t.Errorf("Content = %q, prior content must be preserved", last.Content)
	}
}

func TestConversation_LastMessageLookups(t *testing.T) {
	conv := NewConversation()
	if conv.GetLastMessage() != nil {
		t.Error("empty conversation has no last message")
	}

	conv.AddUserMessage("q1")
	asst := conv.AddAssistantMessage()
	asst.SetComplete("a1")

	if conv.GetLastUserMessage().Content != "q1" {
		t.Error("GetLastUserMessage mismatch")
	}
	if conv.GetLastAssistantMessage().Content != "a1" {
		t.Error("GetLastAssistantMessage mismatch")
	}
}

func TestConversation_TitleFromFirstUserMessage(t *testing.T) {
	conv := NewConversation()
	if conv.GetTitle() != "New Conversation" {
		t.Errorf("GetTitle() = %q", conv.GetTitle())
	}

	conv.AddUserMessage("How do goroutines work?")
	if conv.GetTitle() != "How do goroutines work?" {
		t.Errorf("GetTitle() = %q", conv.GetTitle())
	}

	conv.AddUserMessage("another question")
	if conv.GetTitle() != "How do goroutines work?" {
		t.Error("title should stick to the first user message")
	}
}

func TestConversation_ContextTracking(t *testing.T) {
	conv := NewConversation()
	conv.SetMaxTokens(100)

	conv.AddUserMessage(strings.Repeat("word ", 80)) // ~100 tokens

	if conv.GetContextPercent() <= 0 {
		t.Error("context percent should grow with content")
	}
	if !conv.IsContextNearLimit() {
		t.Errorf("IsContextNearLimit() should be true at %.0f%%", conv.GetContextPercent())
	}
}

func TestConversation_ClearHistory(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("hello")
	conv.ClearHistory()

	if !conv.IsEmpty() {
		t.Error("IsEmpty() should be true after clear")
	}
	if conv.TokensUsed != 0 {
		t.Errorf("TokensUsed = %d after clear", conv.TokensUsed)
	}
}

func TestConversation_Snapshot(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("q")
	conv.AddAssistantMessage()
	conv.AppendToLast("streaming now")

	snaps := conv.Snapshot()
	if len(snaps) != 2 {
		t.Fatalf("snapshot length = %d", len(snaps))
	}
	if snaps[1].Content != "streaming now" {
		t.Errorf("snapshot[1].Content = %q", snaps[1].Content)
	}

	conv.AppendToLast(" more")
	if snaps[1].Content != "streaming now" {
		t.Error("snapshots must be immutable copies")
	}
}

// =============================================================================
// MODEL REGISTRY TESTS
// =============================================================================

func TestGetModelInfo(t *testing.T) {
	info, ok := GetModelInfo("llama3.2")
	if !ok || info.Name != "Llama 3.2" {
		t.Errorf("GetModelInfo(llama3.2) = %+v, %v", info, ok)
	}

	// Tagged names resolve to the base model.
	info, ok = GetModelInfo("llama3.2:3b")
	if !ok || info.ID != "llama3.2" {
		t.Errorf("GetModelInfo(llama3.2:3b) = %+v, %v", info, ok)
	}

	if _, ok := GetModelInfo("nonexistent-model-xyz"); ok {
		t.Error("unknown model should not resolve")
	}
}

func TestKnownContextWindow(t *testing.T) {
	if got := KnownContextWindow("mistral", 2048); got != 32768 {
		t.Errorf("KnownContextWindow(mistral) = %d", got)
	}
	if got := KnownContextWindow("mystery-model-xyz", 2048); got != 2048 {
		t.Errorf("KnownContextWindow(unknown) = %d, want fallback", got)
	}
}

func TestModelShortNames_Sorted(t *testing.T) {
	names := ModelShortNames()
	if len(names) == 0 {
		t.Fatal("registry should not be empty")
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("ModelShortNames() not sorted: %v", names)
	}
}

func TestNewConversationWithModel(t *testing.T) {
	conv := NewConversationWithModel("llama3.1")
	if conv.Model != "llama3.1" {
		t.Errorf("Model = %q", conv.Model)
	}
	if conv.MaxTokens != 128000 {
		t.Errorf("MaxTokens = %d, want model's context window", conv.MaxTokens)
	}
}
