// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
)

const bytesPerMB = 1024 * 1024

// Stats summarizes the durable tier.
type Stats struct {
	TotalChats       int     `json:"total_chats"`
	TotalSizeMB      float64 `json:"total_size_mb"`
	ChatsWithSummary int     `json:"chats_with_summary"`
	LargestChatMB    float64 `json:"largest_chat_mb"`
}

// FormattedStats is Stats with sizes rendered to two decimals.
type FormattedStats struct {
	TotalChats       int    `json:"total_chats"`
	TotalSizeMB      string `json:"total_size_mb"`
	ChatsWithSummary int    `json:"chats_with_summary"`
	LargestChatMB    string `json:"largest_chat_mb"`
}

// Format renders the sizes with two decimals.
func (s Stats) Format() FormattedStats {
	return FormattedStats{
		TotalChats:       s.TotalChats,
		TotalSizeMB:      fmt.Sprintf("%.2f", s.TotalSizeMB),
		ChatsWithSummary: s.ChatsWithSummary,
		LargestChatMB:    fmt.Sprintf("%.2f", s.LargestChatMB),
	}
}

// Stats aggregates every durable record. Sizes are the serialized record
// lengths in MB. Any failure yields zero Stats and a logged error.
func (s *Store) Stats(ctx context.Context) Stats {
	if s.closed.Load() {
		s.logger.Error("STATS_FAILED", "error", ErrClosed)
		return Stats{}
	}

	recs, err := s.durable.All(ctx)
	if err != nil {
		s.logger.Error("STATS_FAILED", "error", err)
		return Stats{}
	}

	var st Stats
	var total, largest int
	for _, rec := range recs {
		size, err := rec.SizeBytes()
		if err != nil {
			s.logger.Error("STATS_FAILED", "chat", rec.ID, "error", err)
			return Stats{}
		}
		total += size
		if size > largest {
			largest = size
		}
		if rec.HasSummary {
			st.ChatsWithSummary++
		}
	}

	st.TotalChats = len(recs)
	st.TotalSizeMB = float64(total) / bytesPerMB
	st.LargestChatMB = float64(largest) / bytesPerMB
	return st
}
