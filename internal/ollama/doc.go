// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with the Ollama API.
//
// This package implements a client for the Ollama local LLM server,
// supporting streaming and non-streaming text generation against the
// /api/generate endpoint, plus health checks and model listing.
//
// # Key Types
//
//   - Client: HTTP client for Ollama API communication
//   - GenerateRequest / GenerateResponse: /api/generate request and response
//   - StreamReader: NDJSON decoder for streaming responses
//   - StreamChunk: one decoded record of a streaming response
//   - StreamStats: timing and token statistics for a stream
//
// # Usage
//
// Create a client and generate a completion:
//
//	client := ollama.NewClient()
//	resp, err := client.Generate(ctx, "llama3.2", "Why is the sky blue?")
//
// For streaming responses:
//
//	err := client.GenerateStream(ctx, "llama3.2", prompt, func(chunk ollama.StreamChunk) {
//	    fmt.Print(chunk.Content)
//	})
//
// Streaming is strict: records arrive in order, every record yields one
// chunk, a done record ends the stream, and a malformed record fails the
// whole stream with a protocol error.
package ollama
