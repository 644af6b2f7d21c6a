// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package compact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jeranaias/chatvault/internal/model"
)

// ErrSummarization is returned when the summarizer fails or replies with
// blank text.
var ErrSummarization = errors.New("summarization failed")

// =============================================================================
// RESULT
// =============================================================================

// Action describes what Compact did to a chat.
type Action int

const (
	// ActionNone leaves the chat untouched.
	ActionNone Action = iota

	// ActionSummarized replaced the older messages with a summary.
	ActionSummarized

	// ActionTruncated dropped the older messages without a summary.
	ActionTruncated
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionSummarized:
		return "summarized"
	case ActionTruncated:
		return "truncated"
	default:
		return "none"
	}
}

// Result reports the outcome for one chat.
type Result struct {
	ChatID    string
	Action    Action
	SizeBytes int // serialized size that was evaluated
	Before    int // message count before
	After     int // message count after
	Err       error
}

// =============================================================================
// COMPACTOR
// =============================================================================

// Compactor applies a Policy to chats.
type Compactor struct {
	policy     Policy
	summarizer Summarizer
	logger     *slog.Logger
}

// NewCompactor creates a compactor. A nil summarizer makes every compaction
// fall back to truncation; a nil logger discards output.
func NewCompactor(policy Policy, summarizer Summarizer, logger *slog.Logger) *Compactor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Compactor{
		policy:     policy,
		summarizer: summarizer,
		logger:     logger,
	}
}

// Policy returns the policy in use.
func (c *Compactor) Policy() Policy {
	return c.policy
}

// Evaluate measures chat and compacts it in place when it crosses the
// policy trigger. A nil chat is left alone.
func (c *Compactor) Evaluate(ctx context.Context, chat *model.Chat) Result {
	if chat == nil {
		return Result{}
	}
	size, err := chat.SizeBytes()
	if err != nil {
		return Result{ChatID: chat.ID, Before: len(chat.Messages), After: len(chat.Messages), Err: err}
	}
	if !c.policy.ShouldCompact(chat, size) {
		return Result{ChatID: chat.ID, SizeBytes: size, Before: len(chat.Messages), After: len(chat.Messages)}
	}

	res := c.Compact(ctx, chat)
	res.SizeBytes = size
	return res
}

// Compact summarizes the older part of chat regardless of its size,
// mutating the chat in place.
func (c *Compactor) Compact(ctx context.Context, chat *model.Chat) Result {
	res := Result{ChatID: chat.ID, Before: len(chat.Messages)}

	if chat.HasSummary && !c.policy.Resummarize {
		c.truncatePinned(chat)
		res.Action = ActionTruncated
		res.After = len(chat.Messages)
		c.logger.Info("CHAT_TRUNCATED", "chat", chat.ID, "before", res.Before, "after", res.After, "reason", "already summarized")
		return res
	}

	split := c.policy.SplitIndex(len(chat.Messages))
	if split == 0 {
		res.After = res.Before
		return res
	}

	summary, err := c.summarize(ctx, chat.Messages[:split])
	if err != nil {
		c.truncate(chat)
		res.Action = ActionTruncated
		res.After = len(chat.Messages)
		res.Err = err
		c.logger.Warn("SUMMARIZE_FAILED", "chat", chat.ID, "error", err, "kept", res.After)
		return res
	}

	suffix := chat.Messages[split:]
	msgs := make([]*model.ChatMessage, 0, len(suffix)+1)
	msgs = append(msgs, model.NewSummaryMessage(summary))
	msgs = append(msgs, suffix...)
	chat.Messages = msgs
	chat.HasSummary = true

	res.Action = ActionSummarized
	res.After = len(chat.Messages)
	c.logger.Info("CHAT_SUMMARIZED", "chat", chat.ID, "summarized", split, "kept", len(suffix))
	return res
}

func (c *Compactor) summarize(ctx context.Context, prefix []*model.ChatMessage) (string, error) {
	if c.summarizer == nil {
		return "", fmt.Errorf("%w: no summarizer configured", ErrSummarization)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSummarization, err)
	}

	reply, err := c.summarizer.Summarize(ctx, BuildPrompt(prefix))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSummarization, err)
	}
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("%w: empty response", ErrSummarization)
	}
	return reply, nil
}

// truncate keeps the last FallbackKeep messages. HasSummary is left alone.
func (c *Compactor) truncate(chat *model.Chat) {
	chat.Messages = lastN(chat.Messages, c.policy.FallbackKeep)
}

// truncatePinned keeps a leading summary message ahead of the most recent
// messages, FallbackKeep in total.
func (c *Compactor) truncatePinned(chat *model.Chat) {
	if len(chat.Messages) == 0 || !chat.Messages[0].IsSummary {
		c.truncate(chat)
		return
	}
	rest := lastN(chat.Messages[1:], c.policy.FallbackKeep-1)
	msgs := make([]*model.ChatMessage, 0, len(rest)+1)
	msgs = append(msgs, chat.Messages[0])
	msgs = append(msgs, rest...)
	chat.Messages = msgs
}

func lastN(msgs []*model.ChatMessage, n int) []*model.ChatMessage {
	if n < 0 {
		n = 0
	}
	if len(msgs) <= n {
		return msgs
	}
	out := make([]*model.ChatMessage, n)
	copy(out, msgs[len(msgs)-n:])
	return out
}
