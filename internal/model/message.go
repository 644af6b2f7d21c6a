// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role identifies who produced a message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleBot
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// SummaryPrefix marks the text of a synthetic compaction message.
const SummaryPrefix = "[CONVERSATION SUMMARY]: "

// LoadingText is the placeholder shown while a response is in flight.
const LoadingText = "Thinking..."

// Attachment is the persisted part of an uploaded file: a preview (usually a
// data URL), the original file name and its media type.
type Attachment struct {
	Preview string `json:"preview,omitempty"`
	Name    string `json:"name"`
	Type    string `json:"type"`
}

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	ID         string          `json:"id,omitempty"`
	Role       Role            `json:"role"`
	Text       string          `json:"text"`
	Attachment *Attachment     `json:"attachment,omitempty"`
	IsLoading  bool            `json:"is_loading,omitempty"`
	IsError    bool            `json:"is_error,omitempty"`
	Meta       json.RawMessage `json:"meta,omitempty"` // Opaque response metadata
	IsSummary  bool            `json:"is_summary,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewMessage creates a message with a generated ID and the current time.
func NewMessage(role Role, text string) *ChatMessage {
	return &ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}

// NewUserMessage creates a user turn, optionally carrying an attachment.
func NewUserMessage(text string, attachment *Attachment) *ChatMessage {
	msg := NewMessage(RoleUser, text)
	msg.Attachment = attachment
	return msg
}

// NewBotMessage creates a completed bot turn.
func NewBotMessage(text string) *ChatMessage {
	return NewMessage(RoleBot, text)
}

// NewLoadingMessage creates the bot placeholder that awaits a response.
func NewLoadingMessage() *ChatMessage {
	msg := NewMessage(RoleBot, LoadingText)
	msg.IsLoading = true
	return msg
}

// NewSummaryMessage creates the synthetic bot message that replaces the
// compacted prefix of a chat.
func NewSummaryMessage(summary string) *ChatMessage {
	now := time.Now().UTC()
	return &ChatMessage{
		ID:        "summary-" + strconv.FormatInt(now.UnixMilli(), 10),
		Role:      RoleBot,
		Text:      SummaryPrefix + summary,
		IsSummary: true,
		CreatedAt: now,
	}
}

// Clone returns a deep copy of the message.
func (m *ChatMessage) Clone() *ChatMessage {
	c := *m
	if m.Attachment != nil {
		att := *m.Attachment
		c.Attachment = &att
	}
	if m.Meta != nil {
		c.Meta = append(json.RawMessage(nil), m.Meta...)
	}
	return &c
}
