// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with the Ollama API.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"
)

// =============================================================================
// WIRE RECORD
// =============================================================================

// streamRecord is the wire form of one NDJSON line from a streaming
// /api/generate response. Response and Done are pointers so that a record
// missing either required field is rejected instead of silently defaulted.
type streamRecord struct {
	Model              string    `json:"model"`
	CreatedAt          time.Time `json:"created_at"`
	Response           *string   `json:"response"`
	Done               *bool     `json:"done"`
	DoneReason         string    `json:"done_reason,omitempty"`
	TotalDuration      int64     `json:"total_duration,omitempty"`
	LoadDuration       int64     `json:"load_duration,omitempty"`
	PromptEvalCount    int       `json:"prompt_eval_count,omitempty"`
	PromptEvalDuration int64     `json:"prompt_eval_duration,omitempty"`
	EvalCount          int       `json:"eval_count,omitempty"`
	EvalDuration       int64     `json:"eval_duration,omitempty"`
}

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader decodes the NDJSON body of a streaming response into an
// ordered sequence of StreamChunks.
//
// The sequence is lazy, finite, and non-restartable. It ends successfully
// at the first record carrying done:true (nothing past that record is
// read) or at a clean EOF, and ends with an error on the first malformed
// record or read failure. Chunks already delivered stay delivered either
// way. Every record produces exactly one chunk, including records whose
// response text is empty.
type StreamReader struct {
	reader     *bufio.Reader
	chunkCount int
	model      string
	done       bool
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
	}
}

// Process reads the stream and calls the callback for each chunk, in the
// order received. Blocks until the stream completes, fails, or the context
// is cancelled. After cancellation no further callbacks are made.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			chunk, err := s.readChunk()
			if err != nil {
				if err == io.EOF {
					// Connection closed without a done record: the
					// server has nothing more to say, treat as complete.
					return nil
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}

			if chunk == nil {
				continue
			}

			callback(*chunk)
			if chunk.Done {
				return nil
			}
		}
	}
}

// readChunk reads and parses a single line from the stream.
// Returns (nil, nil) for blank separator lines.
func (s *StreamReader) readChunk() (*StreamChunk, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "stream read failed", Cause: err}
	}

	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, nil
	}

	// A line that is not a valid record poisons the whole stream. The
	// protocol gives no way to resynchronize after garbage, so parsing
	// failures are terminal rather than skipped.
	var rec streamRecord
	if uerr := json.Unmarshal(trimmed, &rec); uerr != nil {
		return nil, &ClientError{Type: ErrTypeProtocol, Message: "malformed stream record", Cause: uerr}
	}
	if rec.Response == nil || rec.Done == nil {
		return nil, &ClientError{Type: ErrTypeProtocol, Message: "stream record missing response or done field"}
	}

	if rec.Model != "" {
		s.model = rec.Model
	}
	s.chunkCount++

	chunk := &StreamChunk{
		Content:    *rec.Response,
		Done:       *rec.Done,
		DoneReason: rec.DoneReason,
		Model:      s.model,
	}

	if chunk.Done {
		s.done = true
		chunk.TotalDuration = time.Duration(rec.TotalDuration)
		chunk.LoadDuration = time.Duration(rec.LoadDuration)
		chunk.PromptEvalDuration = time.Duration(rec.PromptEvalDuration)
		chunk.EvalDuration = time.Duration(rec.EvalDuration)
		chunk.PromptTokens = rec.PromptEvalCount
		chunk.CompletionTokens = rec.EvalCount
	}

	return chunk, nil
}

// GetChunkCount returns the number of records decoded so far.
func (s *StreamReader) GetChunkCount() int {
	return s.chunkCount
}

// GetModel returns the model name reported by the stream.
func (s *StreamReader) GetModel() string {
	return s.model
}

// SawDone reports whether a done record was decoded.
func (s *StreamReader) SawDone() bool {
	return s.done
}
