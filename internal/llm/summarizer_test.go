// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/jeranaias/chatvault/internal/compact"
)

var _ compact.Summarizer = (*Summarizer)(nil)

type fakeModel struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if text, ok := messages[0].Parts[0].(llms.TextContent); ok {
			f.prompt = text.Text
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestSummarize(t *testing.T) {
	fake := &fakeModel{reply: "short version"}
	s := NewSummarizerFromModel(fake, "test-model")

	out, err := s.Summarize(context.Background(), "long conversation")

	require.NoError(t, err)
	assert.Equal(t, "short version", out)
	assert.Equal(t, "long conversation", fake.prompt)
	assert.Equal(t, "test-model", s.Model())
}

func TestSummarize_Error(t *testing.T) {
	s := NewSummarizerFromModel(&fakeModel{err: errors.New("connection reset")}, "m")

	_, err := s.Summarize(context.Background(), "p")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrFatalAPI)
}

func TestSummarize_FatalError(t *testing.T) {
	s := NewSummarizerFromModel(&fakeModel{err: errors.New("HTTP 401: invalid api key")}, "m")

	_, err := s.Summarize(context.Background(), "p")

	assert.ErrorIs(t, err, ErrFatalAPI)
}

func TestNewSummarizer_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"unknown provider", Options{Provider: "gemini"}},
		{"openai without key", Options{Provider: ProviderOpenAI}},
		{"anthropic without key", Options{Provider: ProviderAnthropic}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewSummarizer(tc.opts)
			assert.Nil(t, s)
			assert.Error(t, err)
		})
	}
}

func TestNewSummarizer_OllamaDefaults(t *testing.T) {
	s, err := NewSummarizer(Options{Provider: ProviderOllama, ServerURL: "http://127.0.0.1:11434"})
	require.NoError(t, err)
	assert.Equal(t, DefaultOllamaModel, s.Model())
}

func TestIsFatalAPIError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("connection reset"), false},
		{"quota exceeded", errors.New("quota exceeded for model"), true},
		{"unauthorized", errors.New("unauthorized request"), true},
		{"wrapped error", fmt.Errorf("embed: %w", errors.New("credit balance too low")), true},
		{"404 not fatal", errors.New("HTTP 404: not found"), false},
		{"timeout not fatal", errors.New("context deadline exceeded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, isFatalAPIError(tt.err))
		})
	}
}
