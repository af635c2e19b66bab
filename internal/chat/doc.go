// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat binds the streaming Ollama client to the conversation log.
//
// Session is the single writer of the conversation: it appends a user
// message and a streaming assistant message per submission, folds decoder
// output into the assistant message in receive order, and notifies
// subscribers after every mutation. Submissions are single-flight; at most
// one generation is in flight against a session at any time.
package chat
