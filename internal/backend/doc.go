// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the chat backend's
// summarization endpoint.
//
// The backend accepts a JSON body of the form
//
//	{"prompt": "...", "history": []}
//
// and answers with
//
//	{"response": "..."}
//
// Client implements compact.Summarizer, so a Store can hand oversized chats
// to the backend for condensing.
//
// # Usage
//
//	client := backend.NewClientWithConfig(&backend.ClientConfig{
//	    BaseURL: "http://localhost:5000",
//	})
//	summary, err := client.Summarize(ctx, prompt)
package backend
