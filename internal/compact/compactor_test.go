// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package compact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatvault/internal/model"
)

type fakeSummarizer struct {
	reply   string
	err     error
	calls   int
	prompts []string
}

func (f *fakeSummarizer) Summarize(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func chatWith(n int) *model.Chat {
	chat := model.NewChat("")
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			chat.AddMessage(model.NewUserMessage(fmt.Sprintf("question %d", i), nil))
		} else {
			chat.AddMessage(model.NewBotMessage(fmt.Sprintf("answer %d", i)))
		}
	}
	return chat
}

// smallPolicy triggers on any non-trivial chat so fixtures stay tiny.
func smallPolicy() Policy {
	p := DefaultPolicy()
	p.ThresholdBytes = 256
	return p
}

// =============================================================================
// POLICY TESTS
// =============================================================================

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, int64(100*1024*1024), p.ThresholdBytes)
	assert.Equal(t, 10, p.MinMessages)
	assert.Equal(t, 0.7, p.SplitRatio)
	assert.Equal(t, 20, p.FallbackKeep)
	assert.True(t, p.Resummarize)
	assert.NoError(t, p.Validate())
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Policy)
	}{
		{"zero threshold", func(p *Policy) { p.ThresholdBytes = 0 }},
		{"zero min messages", func(p *Policy) { p.MinMessages = 0 }},
		{"ratio of one", func(p *Policy) { p.SplitRatio = 1 }},
		{"negative ratio", func(p *Policy) { p.SplitRatio = -0.1 }},
		{"zero keep", func(p *Policy) { p.FallbackKeep = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultPolicy()
			tc.modify(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestPolicy_ShouldCompact(t *testing.T) {
	p := DefaultPolicy()
	p.ThresholdBytes = 1000

	assert.False(t, p.ShouldCompact(chatWith(12), 1000), "size equal to threshold")
	assert.True(t, p.ShouldCompact(chatWith(12), 1001))
	assert.True(t, p.ShouldCompact(chatWith(10), 5000), "exactly min messages")
	assert.False(t, p.ShouldCompact(chatWith(9), 5000), "too few messages")
}

func TestPolicy_SplitIndex(t *testing.T) {
	p := DefaultPolicy()
	for n, want := range map[int]int{0: 0, 1: 0, 10: 7, 12: 8, 20: 14, 30: 21, 101: 70} {
		assert.Equal(t, want, p.SplitIndex(n), "n=%d", n)
	}
}

// =============================================================================
// PROMPT TESTS
// =============================================================================

func TestBuildPrompt(t *testing.T) {
	msgs := []*model.ChatMessage{
		model.NewUserMessage("hello", nil),
		model.NewBotMessage("hi there"),
	}

	assert.Equal(t, "user: hello\nbot: hi there", RenderTranscript(msgs))
	assert.Equal(t, PromptPreamble+"user: hello\nbot: hi there", BuildPrompt(msgs))
	assert.True(t, strings.HasSuffix(PromptPreamble, "continuity:\n\n"))
}

// =============================================================================
// COMPACT TESTS
// =============================================================================

func TestCompact_Summarizes(t *testing.T) {
	fake := &fakeSummarizer{reply: "S"}
	c := NewCompactor(smallPolicy(), fake, nil)
	chat := chatWith(12)
	suffix := append([]*model.ChatMessage(nil), chat.Messages[8:]...)

	res := c.Compact(context.Background(), chat)

	require.NoError(t, res.Err)
	assert.Equal(t, ActionSummarized, res.Action)
	assert.Equal(t, 12, res.Before)
	assert.Equal(t, 5, res.After)

	require.Len(t, chat.Messages, 5)
	first := chat.Messages[0]
	assert.Equal(t, model.RoleBot, first.Role)
	assert.True(t, first.IsSummary)
	assert.Equal(t, "[CONVERSATION SUMMARY]: S", first.Text)
	assert.True(t, strings.HasPrefix(first.ID, "summary-"))
	assert.Equal(t, suffix, chat.Messages[1:])
	assert.True(t, chat.HasSummary)

	require.Equal(t, 1, fake.calls)
	assert.Contains(t, fake.prompts[0], "user: question 0\nbot: answer 1")
	assert.Contains(t, fake.prompts[0], "bot: answer 7")
	assert.NotContains(t, fake.prompts[0], "question 8")
}

func TestCompact_FallbackTruncates(t *testing.T) {
	tests := []struct {
		name  string
		fake  *fakeSummarizer
		count int
		want  int
	}{
		{"transport error", &fakeSummarizer{err: errors.New("connection refused")}, 30, 20},
		{"empty reply", &fakeSummarizer{reply: ""}, 30, 20},
		{"whitespace reply", &fakeSummarizer{reply: " \n\t"}, 25, 20},
		{"shorter than keep", &fakeSummarizer{err: errors.New("boom")}, 12, 12},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCompactor(smallPolicy(), tc.fake, nil)
			chat := chatWith(tc.count)
			last := chat.LastMessage()

			res := c.Compact(context.Background(), chat)

			assert.Equal(t, ActionTruncated, res.Action)
			assert.ErrorIs(t, res.Err, ErrSummarization)
			require.Len(t, chat.Messages, tc.want)
			assert.Same(t, last, chat.LastMessage())
			assert.False(t, chat.HasSummary)
			assert.Equal(t, 1, tc.fake.calls, "no retry")
		})
	}
}

func TestCompact_FallbackKeepsHasSummary(t *testing.T) {
	c := NewCompactor(smallPolicy(), &fakeSummarizer{err: errors.New("down")}, nil)
	chat := chatWith(30)
	chat.HasSummary = true

	c.Compact(context.Background(), chat)

	assert.True(t, chat.HasSummary)
	assert.Len(t, chat.Messages, 20)
}

func TestCompact_NilSummarizer(t *testing.T) {
	c := NewCompactor(smallPolicy(), nil, nil)
	chat := chatWith(25)

	res := c.Compact(context.Background(), chat)

	assert.Equal(t, ActionTruncated, res.Action)
	assert.ErrorIs(t, res.Err, ErrSummarization)
	assert.Len(t, chat.Messages, 20)
}

func TestCompact_CancelledContext(t *testing.T) {
	fake := &fakeSummarizer{reply: "S"}
	c := NewCompactor(smallPolicy(), fake, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := c.Compact(ctx, chatWith(25))

	assert.Equal(t, ActionTruncated, res.Action)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Zero(t, fake.calls)
}

func TestCompact_Resummarize(t *testing.T) {
	fake := &fakeSummarizer{reply: "first"}
	c := NewCompactor(smallPolicy(), fake, nil)
	chat := chatWith(12)
	c.Compact(context.Background(), chat)
	for i := 0; i < 10; i++ {
		chat.AddMessage(model.NewUserMessage("more", nil))
	}

	fake.reply = "second"
	res := c.Compact(context.Background(), chat)

	assert.Equal(t, ActionSummarized, res.Action)
	assert.Equal(t, 2, fake.calls)
	assert.Contains(t, fake.prompts[1], "bot: [CONVERSATION SUMMARY]: first")
	assert.Equal(t, "[CONVERSATION SUMMARY]: second", chat.Messages[0].Text)
}

func TestCompact_NoResummarizePinsSummary(t *testing.T) {
	p := smallPolicy()
	p.Resummarize = false
	fake := &fakeSummarizer{reply: "only"}
	c := NewCompactor(p, fake, nil)

	chat := chatWith(12)
	c.Compact(context.Background(), chat)
	summary := chat.Messages[0]
	for i := 0; i < 40; i++ {
		chat.AddMessage(model.NewBotMessage(fmt.Sprintf("later %d", i)))
	}

	res := c.Compact(context.Background(), chat)

	assert.Equal(t, ActionTruncated, res.Action)
	assert.NoError(t, res.Err)
	assert.Equal(t, 1, fake.calls)
	require.Len(t, chat.Messages, 20)
	assert.Same(t, summary, chat.Messages[0])
	assert.Equal(t, "later 39", chat.LastMessage().Text)
	assert.True(t, chat.HasSummary)
}

func TestCompact_NothingToSplit(t *testing.T) {
	fake := &fakeSummarizer{reply: "S"}
	c := NewCompactor(smallPolicy(), fake, nil)
	chat := chatWith(1)

	res := c.Compact(context.Background(), chat)

	assert.Equal(t, ActionNone, res.Action)
	assert.Len(t, chat.Messages, 1)
	assert.Zero(t, fake.calls)
}

// =============================================================================
// EVALUATE TESTS
// =============================================================================

func TestEvaluate_BelowThreshold(t *testing.T) {
	fake := &fakeSummarizer{reply: "S"}
	c := NewCompactor(DefaultPolicy(), fake, nil)
	chat := chatWith(50)

	res := c.Evaluate(context.Background(), chat)

	assert.Equal(t, ActionNone, res.Action)
	assert.Positive(t, res.SizeBytes)
	assert.Len(t, chat.Messages, 50)
	assert.Zero(t, fake.calls)
}

func TestEvaluate_TooFewMessages(t *testing.T) {
	fake := &fakeSummarizer{reply: "S"}
	c := NewCompactor(smallPolicy(), fake, nil)
	chat := chatWith(9)
	chat.Messages[0].Text = strings.Repeat("x", 4096)

	res := c.Evaluate(context.Background(), chat)

	assert.Equal(t, ActionNone, res.Action)
	assert.Zero(t, fake.calls)
}

func TestEvaluate_NilChat(t *testing.T) {
	fake := &fakeSummarizer{reply: "S"}
	c := NewCompactor(smallPolicy(), fake, nil)

	var res Result
	require.NotPanics(t, func() { res = c.Evaluate(context.Background(), nil) })
	assert.Equal(t, ActionNone, res.Action)
	assert.Zero(t, fake.calls)
}

func TestEvaluate_OverThreshold(t *testing.T) {
	c := NewCompactor(smallPolicy(), &fakeSummarizer{reply: "S"}, nil)
	chat := chatWith(12)

	res := c.Evaluate(context.Background(), chat)

	assert.Equal(t, ActionSummarized, res.Action)
	assert.Greater(t, res.SizeBytes, 256)
	assert.Len(t, chat.Messages, 5)
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "none", ActionNone.String())
	assert.Equal(t, "summarized", ActionSummarized.String())
	assert.Equal(t, "truncated", ActionTruncated.String())
}

func TestSummarizerFunc(t *testing.T) {
	var s Summarizer = SummarizerFunc(func(_ context.Context, prompt string) (string, error) {
		return strings.ToUpper(prompt), nil
	})
	out, err := s.Summarize(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "ABC", out)
}
