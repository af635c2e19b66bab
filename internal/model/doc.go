// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types used throughout the application
// for representing chat conversations, messages, and model information.
//
// # Key Types
//
//   - Conversation: append-only message log with metadata
//   - Message: single message with role, content, and lifecycle status
//   - Status: message lifecycle (streaming, complete, errored)
//   - Statistics: generation timing and token counts
//   - ModelInfo: metadata for well-known local models
//
// # Usage
//
// Create a conversation and stream into it:
//
//	conv := model.NewConversation()
//	conv.AddUserMessage("Hello!")
//	msg := conv.AddAssistantMessage()
//	msg.AppendToken("Hi")
//	msg.AppendToken(" there.")
//	msg.FinalizeStream(nil)
//
// The log is append-only: messages are never reordered or removed, and at
// most one message is streaming at any time.
package model
