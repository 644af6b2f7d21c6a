// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Supported providers.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// DefaultOllamaModel is used when no model is configured for Ollama.
const DefaultOllamaModel = "llama3.2"

// ErrFatalAPI marks failures that will not go away on their own, such as a
// bad key or an exhausted quota.
var ErrFatalAPI = errors.New("fatal llm api error")

// Options selects and configures the model.
type Options struct {
	Provider  string
	Model     string
	ServerURL string // Ollama only
	APIKey    string // OpenAI and Anthropic
}

// Summarizer condenses prompts with a langchaingo model.
type Summarizer struct {
	llm       llms.Model
	modelName string
}

// NewSummarizer creates a Summarizer for the configured provider.
func NewSummarizer(opts Options) (*Summarizer, error) {
	var model llms.Model
	var err error

	switch opts.Provider {
	case ProviderOllama, "":
		name := opts.Model
		if name == "" {
			name = DefaultOllamaModel
		}
		ollamaOpts := []ollama.Option{ollama.WithModel(name)}
		if opts.ServerURL != "" {
			ollamaOpts = append(ollamaOpts, ollama.WithServerURL(opts.ServerURL))
		}
		model, err = ollama.New(ollamaOpts...)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		opts.Model = name

	case ProviderOpenAI:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		openaiOpts := []openai.Option{openai.WithToken(opts.APIKey)}
		if opts.Model != "" {
			openaiOpts = append(openaiOpts, openai.WithModel(opts.Model))
		}
		model, err = openai.New(openaiOpts...)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case ProviderAnthropic:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		anthropicOpts := []anthropic.Option{anthropic.WithToken(opts.APIKey)}
		if opts.Model != "" {
			anthropicOpts = append(anthropicOpts, anthropic.WithModel(opts.Model))
		}
		model, err = anthropic.New(anthropicOpts...)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", opts.Provider)
	}

	return NewSummarizerFromModel(model, opts.Model), nil
}

// NewSummarizerFromModel wraps an already constructed model.
func NewSummarizerFromModel(model llms.Model, name string) *Summarizer {
	return &Summarizer{llm: model, modelName: name}
}

// Model returns the model name.
func (s *Summarizer) Model() string {
	return s.modelName
}

// Summarize sends prompt as a single human turn and returns the reply.
func (s *Summarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	response, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", wrapFatalError(err))
	}
	return response, nil
}

var fatalMarkers = []string{
	"credit balance",
	"rate limit",
	"quota exceeded",
	"billing",
	"invalid api key",
	"authentication",
	"unauthorized",
	"401",
	"403",
}

func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range fatalMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func wrapFatalError(err error) error {
	if isFatalAPIError(err) {
		return fmt.Errorf("%w: %w", ErrFatalAPI, err)
	}
	return err
}
