// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/chatvault/internal/model"
)

// formatBytes formats a byte count for display.
func formatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)

	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

// formatTimeAgo formats a timestamp relative to now.
func formatTimeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case t.IsZero():
		return "never"
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Local().Format("2006-01-02")
	}
}

// fitColumn truncates s to width display cells and pads it to exactly width.
// Text is NFC-normalized first so truncation never splits a combining mark
// from its base.
func fitColumn(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = norm.NFC.String(s)
	return runewidth.FillRight(runewidth.Truncate(s, width, "..."), width)
}

// readInput reads path, or stdin when path is "-".
func (a *app) readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(a.stdin)
	}
	return os.ReadFile(path)
}

// findChat returns the chat with the given id.
func findChat(chats []*model.Chat, id string) *model.Chat {
	for _, c := range chats {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// mergeChats overlays incoming on existing by id, incoming winning.
func mergeChats(existing, incoming []*model.Chat) []*model.Chat {
	seen := make(map[string]bool, len(incoming))
	merged := make([]*model.Chat, 0, len(existing)+len(incoming))
	for _, c := range incoming {
		seen[c.ID] = true
		merged = append(merged, c)
	}
	for _, c := range existing {
		if !seen[c.ID] {
			merged = append(merged, c)
		}
	}
	model.SortByRecent(merged)
	return merged
}
