// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrCorruptRecord is returned when persisted data cannot become a valid Chat.
var ErrCorruptRecord = errors.New("corrupt chat record")

// Record is the persisted shape of a Chat. The durable tier stores one per
// row; the fast tier stores a JSON array of them. Messages stay raw until
// FromRecord decodes and validates them.
type Record struct {
	ID          string          `json:"id"`
	Title       string          `json:"title,omitempty"`
	Messages    json.RawMessage `json:"messages"`
	CreatedAt   time.Time       `json:"created_at"`
	LastUpdated time.Time       `json:"last_updated"`
	HasSummary  bool            `json:"has_summary"`
}

// SizeBytes returns the length of the record's JSON encoding.
func (r Record) SizeBytes() (int, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// FromRecord validates rec and builds the Chat it describes.
//
// Repairs applied: a missing message list becomes empty, and a zero
// LastUpdated or CreatedAt is filled from the other timestamp. Anything that
// cannot be repaired (empty ID, undecodable messages, a null message or an
// unknown role) fails with ErrCorruptRecord.
func FromRecord(rec Record) (*Chat, error) {
	if rec.ID == "" {
		return nil, fmt.Errorf("%w: empty id", ErrCorruptRecord)
	}

	msgs := make([]*ChatMessage, 0)
	if raw := bytes.TrimSpace(rec.Messages); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if err := json.Unmarshal(raw, &msgs); err != nil {
			return nil, fmt.Errorf("%w: %s messages: %v", ErrCorruptRecord, rec.ID, err)
		}
	}
	for i, msg := range msgs {
		if msg == nil {
			return nil, fmt.Errorf("%w: %s message %d is null", ErrCorruptRecord, rec.ID, i)
		}
		if !msg.Role.Valid() {
			return nil, fmt.Errorf("%w: %s message %d has role %q", ErrCorruptRecord, rec.ID, i, msg.Role)
		}
	}

	chat := &Chat{
		ID:          rec.ID,
		Title:       rec.Title,
		Messages:    msgs,
		CreatedAt:   rec.CreatedAt,
		LastUpdated: rec.LastUpdated,
		HasSummary:  rec.HasSummary,
	}
	if chat.LastUpdated.IsZero() {
		chat.LastUpdated = chat.CreatedAt
	}
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = chat.LastUpdated
	}
	return chat, nil
}

// FromRecords converts every record with FromRecord. A single corrupt record
// fails the whole batch so callers never see a partial history. Duplicate
// IDs collapse to the copy with the latest LastUpdated, and the result is
// sorted most recent first.
func FromRecords(recs []Record) ([]*Chat, error) {
	chats := make([]*Chat, 0, len(recs))
	index := make(map[string]int, len(recs))

	for _, rec := range recs {
		chat, err := FromRecord(rec)
		if err != nil {
			return nil, err
		}
		if i, dup := index[chat.ID]; dup {
			if chat.LastUpdated.After(chats[i].LastUpdated) {
				chats[i] = chat
			}
			continue
		}
		index[chat.ID] = len(chats)
		chats = append(chats, chat)
	}

	SortByRecent(chats)
	return chats, nil
}

// Records converts chats to their persisted shape, in order.
func Records(chats []*Chat) ([]Record, error) {
	recs := make([]Record, 0, len(chats))
	for _, c := range chats {
		rec, err := c.Record()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// DecodeRecords parses a JSON array of records, the format of the fast tier
// blob and of exported history files.
func DecodeRecords(data []byte) ([]Record, error) {
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return recs, nil
}

// EncodeChats serializes chats as a JSON array of records.
func EncodeChats(chats []*Chat) ([]byte, error) {
	recs, err := Records(chats)
	if err != nil {
		return nil, err
	}
	return json.Marshal(recs)
}
