// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the conversation data structures persisted by
// chatvault.
//
// # Key Types
//
//   - Chat: one conversation, an ordered list of messages plus metadata
//   - ChatMessage: a single user or bot turn
//   - Record: the persisted shape of a Chat shared by both storage tiers
//   - FileState: the transient state of an in-progress upload
//
// # Invariants
//
// A Chat's ID is assigned once by NewChat and never changes. Messages keep
// insertion order; the only in-place edit allowed is UpdateLastMessage.
// HasSummary is set by compaction and is never cleared.
//
// FromRecord is the only way persisted data becomes a Chat. Both tiers of
// the store route every decoded record through it, so validation and
// repair of old records happen in one place.
//
// # Usage
//
//	chat := model.NewChat("")
//	chat.AddMessage(model.NewUserMessage("hello", nil))
//	chat.AddMessage(model.NewLoadingMessage())
//	chat.UpdateLastMessage(func(m *model.ChatMessage) {
//		m.Text = reply
//		m.IsLoading = false
//	})
package model
