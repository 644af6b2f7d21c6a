// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

// HistoryEntry is one prior turn sent alongside a prompt.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body posted to the chat endpoint. Message carries the
// same text as Prompt for backends that read the "message" field.
type ChatRequest struct {
	Prompt  string         `json:"prompt"`
	Message string         `json:"message"`
	History []HistoryEntry `json:"history"`
}

// ChatResponse is the body returned by the chat endpoint.
type ChatResponse struct {
	Response string `json:"response"`
}

// errorBody is the shape some backends use for failures.
type errorBody struct {
	Error string `json:"error"`
}
