// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with the Ollama API.
package ollama

import (
	"context"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// STREAM READER TESTS
// =============================================================================

func processAll(t *testing.T, body string) ([]StreamChunk, error) {
	t.Helper()
	reader := NewStreamReader(strings.NewReader(body))
	var chunks []StreamChunk
	err := reader.Process(context.Background(), func(c StreamChunk) {
		chunks = append(chunks, c)
	})
	return chunks, err
}

func joinContent(chunks []StreamChunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Content)
	}
	return b.String()
}

func TestStreamReader_OrderedConcatenation(t *testing.T) {
	body := `{"response":"Why","done":false}` + "\n" +
		`{"response":" did...","done":false}` + "\n" +
		`{"response":" yet.","done":true}` + "\n"

	chunks, err := processAll(t, body)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if got := joinContent(chunks); got != "Why did... yet." {
		t.Errorf("content = %q, want %q", got, "Why did... yet.")
	}

	if len(chunks) != 3 {
		t.Fatalf("chunk count = %d, want 3", len(chunks))
	}

	if !chunks[2].Done {
		t.Error("final chunk should carry Done")
	}
	for i := 0; i < 2; i++ {
		if chunks[i].Done {
			t.Errorf("chunk %d should not carry Done", i)
		}
	}
}

func TestStreamReader_DoneStopsReading(t *testing.T) {
	// Bytes after the done record must never be parsed. The trailing
	// garbage would fail the stream if it were read.
	body := `{"response":"x","done":true}` + "\n" + "not json\n"

	chunks, err := processAll(t, body)
	if err != nil {
		t.Fatalf("Process() error = %v, want nil", err)
	}

	if len(chunks) != 1 {
		t.Fatalf("chunk count = %d, want 1", len(chunks))
	}
	if chunks[0].Content != "x" || !chunks[0].Done {
		t.Errorf("chunk = %+v, want Content=x Done=true", chunks[0])
	}
}

func TestStreamReader_DoneRecordEmitsOwnContent(t *testing.T) {
	body := `{"response":"partial","done":false}` + "\n" +
		`{"response":" final","done":true}` + "\n"

	chunks, err := processAll(t, body)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if got := joinContent(chunks); got != "partial final" {
		t.Errorf("content = %q, want %q", got, "partial final")
	}
}

func TestStreamReader_EOFWithoutDoneIsSuccess(t *testing.T) {
	body := `{"response":"a","done":false}` + "\n" +
		`{"response":"b","done":false}` + "\n"

	chunks, err := processAll(t, body)
	if err != nil {
		t.Fatalf("Process() error = %v, want nil", err)
	}

	if got := joinContent(chunks); got != "ab" {
		t.Errorf("content = %q, want %q", got, "ab")
	}
	for i, c := range chunks {
		if c.Done {
			t.Errorf("chunk %d should not carry Done", i)
		}
	}
}

func TestStreamReader_EmptyContentStillEmitted(t *testing.T) {
	body := `{"response":"","done":false}` + "\n" +
		`{"response":"hi","done":false}` + "\n" +
		`{"response":"","done":true}` + "\n"

	chunks, err := processAll(t, body)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(chunks) != 3 {
		t.Fatalf("chunk count = %d, want 3 (empty records must be emitted)", len(chunks))
	}
	if chunks[0].Content != "" || chunks[2].Content != "" {
		t.Error("empty records should carry empty content")
	}
}

func TestStreamReader_MalformedLineIsFatal(t *testing.T) {
	body := `{"response":"keep","done":false}` + "\n" + "not json\n" +
		`{"response":"never","done":true}` + "\n"

	chunks, err := processAll(t, body)
	if err == nil {
		t.Fatal("Process() should fail on a malformed record")
	}
	if !IsProtocol(err) {
		t.Errorf("error = %v, want protocol error", err)
	}

	// Chunks before the bad line stay delivered; nothing after it does.
	if got := joinContent(chunks); got != "keep" {
		t.Errorf("content = %q, want %q", got, "keep")
	}
}

func TestStreamReader_MissingFieldsAreFatal(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"missing response", `{"done":false}`},
		{"missing done", `{"response":"x"}`},
		{"non-boolean done", `{"response":"x","done":"yes"}`},
		{"array instead of object", `[1,2,3]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := processAll(t, tc.line+"\n")
			if err == nil {
				t.Fatal("Process() should fail")
			}
			if !IsProtocol(err) {
				t.Errorf("error = %v, want protocol error", err)
			}
		})
	}
}

func TestStreamReader_BlankLinesSkipped(t *testing.T) {
	body := `{"response":"a","done":false}` + "\n\n\n" +
		`{"response":"b","done":true}` + "\n"

	chunks, err := processAll(t, body)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if got := joinContent(chunks); got != "ab" {
		t.Errorf("content = %q, want %q", got, "ab")
	}
}

func TestStreamReader_FinalLineWithoutNewline(t *testing.T) {
	body := `{"response":"a","done":false}` + "\n" +
		`{"response":"b","done":true}` // no trailing newline

	chunks, err := processAll(t, body)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if got := joinContent(chunks); got != "ab" {
		t.Errorf("content = %q, want %q", got, "ab")
	}
}

func TestStreamReader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := NewStreamReader(strings.NewReader(`{"response":"x","done":true}` + "\n"))
	calls := 0
	err := reader.Process(ctx, func(StreamChunk) { calls++ })

	if err != context.Canceled {
		t.Errorf("Process() error = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("callback ran %d times after cancel, want 0", calls)
	}
}

func TestStreamReader_FinalChunkStatistics(t *testing.T) {
	body := `{"response":"done","done":true,"total_duration":2000000000,` +
		`"prompt_eval_count":10,"prompt_eval_duration":500000000,` +
		`"eval_count":50,"eval_duration":1000000000}` + "\n"

	chunks, err := processAll(t, body)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("chunk count = %d, want 1", len(chunks))
	}

	c := chunks[0]
	if c.TotalDuration != 2*time.Second {
		t.Errorf("TotalDuration = %v, want 2s", c.TotalDuration)
	}
	if c.PromptTokens != 10 || c.CompletionTokens != 50 {
		t.Errorf("tokens = %d/%d, want 10/50", c.PromptTokens, c.CompletionTokens)
	}
	if c.EvalDuration != time.Second {
		t.Errorf("EvalDuration = %v, want 1s", c.EvalDuration)
	}
}

func TestStreamReader_Accessors(t *testing.T) {
	body := `{"model":"llama3.2","response":"a","done":false}` + "\n" +
		`{"response":"b","done":true}` + "\n"

	reader := NewStreamReader(strings.NewReader(body))
	err := reader.Process(context.Background(), func(StreamChunk) {})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if reader.GetChunkCount() != 2 {
		t.Errorf("GetChunkCount() = %d, want 2", reader.GetChunkCount())
	}
	if reader.GetModel() != "llama3.2" {
		t.Errorf("GetModel() = %q, want llama3.2", reader.GetModel())
	}
	if !reader.SawDone() {
		t.Error("SawDone() should be true")
	}
}

// =============================================================================
// STREAM STATS TESTS
// =============================================================================

func TestStreamStats_Format(t *testing.T) {
	stats := &StreamStats{
		TotalDuration:    1500 * time.Millisecond,
		CompletionTokens: 42,
		TokensPerSecond:  28.0,
		TTFT:             350 * time.Millisecond,
	}

	got := stats.Format()
	if !strings.Contains(got, "42 tokens") {
		t.Errorf("Format() = %q, want token count", got)
	}
	if !strings.Contains(got, "TTFT 350ms") {
		t.Errorf("Format() = %q, want TTFT", got)
	}
}

func TestStreamStats_RecordFirstTokenOnce(t *testing.T) {
	stats := NewStreamStats()
	stats.RecordFirstToken()
	first := stats.FirstTokenTime

	time.Sleep(time.Millisecond)
	stats.RecordFirstToken()

	if !stats.FirstTokenTime.Equal(first) {
		t.Error("RecordFirstToken should only record the first call")
	}
}
