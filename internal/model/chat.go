// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/chatvault/internal/util"
)

// TitleMaxRunes is how much of the first message a derived title keeps.
const TitleMaxRunes = 30

// DefaultTitle is shown for a chat with neither a title nor any text.
const DefaultTitle = "New Chat"

// =============================================================================
// CHAT TYPE
// =============================================================================

// Chat holds a complete conversation with its metadata.
type Chat struct {
	ID          string
	Title       string
	Messages    []*ChatMessage
	CreatedAt   time.Time
	LastUpdated time.Time
	HasSummary  bool
}

// NewChat creates an empty chat with a fresh ID. An empty title means the
// title is derived from the first message.
func NewChat(title string) *Chat {
	now := time.Now().UTC()
	return &Chat{
		ID:          "chat_" + uuid.NewString(),
		Title:       title,
		Messages:    make([]*ChatMessage, 0),
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends msg and bumps LastUpdated.
func (c *Chat) AddMessage(msg *ChatMessage) {
	c.Messages = append(c.Messages, msg)
	c.touch()
}

// UpdateLastMessage applies fn to the final message in place. It returns
// false when the chat has no messages.
func (c *Chat) UpdateLastMessage(fn func(m *ChatMessage)) bool {
	last := c.LastMessage()
	if last == nil {
		return false
	}
	fn(last)
	c.touch()
	return true
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Chat) LastMessage() *ChatMessage {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// MessageCount returns the number of messages.
func (c *Chat) MessageCount() int {
	return len(c.Messages)
}

// DisplayTitle returns the explicit title or one derived from the first
// message.
func (c *Chat) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	if len(c.Messages) > 0 && c.Messages[0].Text != "" {
		return util.Ellipsize(c.Messages[0].Text, TitleMaxRunes)
	}
	return DefaultTitle
}

func (c *Chat) touch() {
	now := time.Now().UTC()
	// Keep LastUpdated monotonic even if the wall clock steps back.
	if now.After(c.LastUpdated) {
		c.LastUpdated = now
	}
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// Record converts the chat to its persisted shape.
func (c *Chat) Record() (Record, error) {
	msgs := c.Messages
	if msgs == nil {
		msgs = []*ChatMessage{}
	}
	raw, err := json.Marshal(msgs)
	if err != nil {
		return Record{}, fmt.Errorf("encode messages of %s: %w", c.ID, err)
	}
	return Record{
		ID:          c.ID,
		Title:       c.Title,
		Messages:    raw,
		CreatedAt:   c.CreatedAt,
		LastUpdated: c.LastUpdated,
		HasSummary:  c.HasSummary,
	}, nil
}

// Repair drops nil messages and clears Meta that is not valid JSON, the two
// things that keep a chat from encoding. It returns how many messages it
// changed or removed.
func (c *Chat) Repair() int {
	fixed := 0
	kept := make([]*ChatMessage, 0, len(c.Messages))
	for _, m := range c.Messages {
		if m == nil {
			fixed++
			continue
		}
		if len(m.Meta) > 0 && !json.Valid(m.Meta) {
			m.Meta = nil
			fixed++
		}
		kept = append(kept, m)
	}
	if fixed > 0 {
		c.Messages = kept
	}
	return fixed
}

// SizeBytes returns the length of the chat's serialized record. This is the
// figure the compaction threshold is compared against.
func (c *Chat) SizeBytes() (int, error) {
	rec, err := c.Record()
	if err != nil {
		return 0, err
	}
	return rec.SizeBytes()
}

// Clone returns a deep copy of the chat.
func (c *Chat) Clone() *Chat {
	clone := *c
	clone.Messages = make([]*ChatMessage, len(c.Messages))
	for i, msg := range c.Messages {
		clone.Messages[i] = msg.Clone()
	}
	return &clone
}

// =============================================================================
// COLLECTION HELPERS
// =============================================================================

// SortByRecent orders chats by LastUpdated, most recent first. Ties keep
// their input order.
func SortByRecent(chats []*Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].LastUpdated.After(chats[j].LastUpdated)
	})
}

// MostRecent returns up to n chats with the latest LastUpdated, without
// reordering the input slice.
func MostRecent(chats []*Chat, n int) []*Chat {
	sorted := make([]*Chat, len(chats))
	copy(sorted, chats)
	SortByRecent(sorted)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// CloneAll deep-copies every chat in the list.
func CloneAll(chats []*Chat) []*Chat {
	out := make([]*Chat, len(chats))
	for i, c := range chats {
		out[i] = c.Clone()
	}
	return out
}
