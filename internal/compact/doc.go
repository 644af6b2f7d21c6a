// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package compact bounds the size of a single chat by replacing its older
// messages with a generated summary.
//
// A chat is compacted when its serialized size exceeds the policy threshold
// and it holds at least the minimum number of messages. The oldest 70% of
// the messages are rendered as "<role>: <text>" lines and sent to a
// Summarizer; the reply becomes one synthetic bot message placed ahead of
// the newest 30%.
//
// # Key Types
//
//   - Policy: thresholds and ratios controlling when and how to compact
//   - Summarizer: the external collaborator that condenses text
//   - Compactor: applies a Policy to chats using a Summarizer
//   - Result: what a single Compact call did to a chat
//
// # Failure Handling
//
// When the summarizer fails or returns blank text, the chat is truncated to
// its most recent messages instead. There is no retry.
//
// # Usage
//
//	c := compact.NewCompactor(compact.DefaultPolicy(), summarizer, logger)
//	res := c.Evaluate(ctx, chat)
//	if res.Action == compact.ActionSummarized {
//	    ...
//	}
package compact
