// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the Bubble Tea chat interface.
//
// The TUI is a thin view over a conversation session: key presses call
// Submit and Cancel, and session events arrive as SessionEventMsg via
// tea.Program.Send. Streamed tokens are batched through a StreamingBuffer
// and folded into the viewport at a capped frame rate, so render cost stays
// flat no matter how fast the model produces tokens. Markdown is rendered
// with glamour only for messages in a terminal state; in-flight text is
// shown raw.
package chat
