// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package compact

import (
	"context"
	"strings"

	"github.com/jeranaias/chatvault/internal/model"
)

// PromptPreamble frames the rendered transcript sent for summarization.
const PromptPreamble = "Please provide a concise summary of this conversation that " +
	"captures the key points, decisions, and context. This summary will be " +
	"used to maintain conversation continuity:\n\n"

// Summarizer condenses a prompt into a single reply. Implementations submit
// the prompt with an empty history and must honour ctx cancellation.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// SummarizerFunc adapts a plain function to the Summarizer interface.
type SummarizerFunc func(ctx context.Context, prompt string) (string, error)

// Summarize calls f.
func (f SummarizerFunc) Summarize(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// RenderTranscript renders messages as newline-joined "<role>: <text>" lines.
func RenderTranscript(msgs []*model.ChatMessage) string {
	var sb strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(msg.Role.String())
		sb.WriteString(": ")
		sb.WriteString(msg.Text)
	}
	return sb.String()
}

// BuildPrompt returns the full summarization prompt for msgs.
func BuildPrompt(msgs []*model.ChatMessage) string {
	return PromptPreamble + RenderTranscript(msgs)
}
