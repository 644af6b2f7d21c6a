// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm summarizes chats with a language model reached through
// langchaingo instead of the chat backend.
//
// Summarizer satisfies compact.Summarizer. It is selected with
// summarizer.provider set to "ollama", "openai" or "anthropic".
package llm
