// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatvault/internal/model"
)

var fixed = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func sampleChat() *model.Chat {
	chat := &model.Chat{
		ID:          "chat-1",
		Title:       "Budget *draft*",
		CreatedAt:   fixed,
		LastUpdated: fixed.Add(time.Hour),
		HasSummary:  true,
	}
	summary := model.NewSummaryMessage("earlier talk\nsecond line")
	summary.CreatedAt = fixed
	user := model.NewUserMessage("  what now?  ", &model.Attachment{Name: "q3.csv", Type: "text/csv"})
	user.CreatedAt = fixed.Add(time.Minute)
	bot := model.NewBotMessage("ship it")
	bot.CreatedAt = fixed.Add(2 * time.Minute)
	chat.Messages = []*model.ChatMessage{summary, user, bot}
	return chat
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatJSON},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseFormat("html")
	assert.Error(t, err)
}

func TestJSONExporter_RoundTrips(t *testing.T) {
	exp, err := New(FormatJSON, nil)
	require.NoError(t, err)
	assert.Equal(t, ".json", exp.FileExtension())

	data, err := exp.Export([]*model.Chat{sampleChat()})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "\n"))
	assert.Contains(t, string(data), "\n  {")

	recs, err := model.DecodeRecords(data)
	require.NoError(t, err)
	chats, err := model.FromRecords(recs)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "chat-1", chats[0].ID)
	assert.Len(t, chats[0].Messages, 3)
}

func TestMarkdownExporter(t *testing.T) {
	exp := NewMarkdownExporter(&Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Now:               func() time.Time { return fixed },
	})

	data, err := exp.Export([]*model.Chat{sampleChat()})
	require.NoError(t, err)
	md := string(data)

	assert.True(t, strings.HasPrefix(md, "---\nchats: 1\nexported: 2025-06-01T09:30:00Z\n"))
	assert.Contains(t, md, "## Budget \\*draft\\*")
	assert.Contains(t, md, "- **ID**: `chat-1`")
	assert.Contains(t, md, "- **Summarized**: yes")
	assert.Contains(t, md, "### [Summary] <sub>09:30:00</sub>")
	assert.Contains(t, md, "> earlier talk\n> second line")
	assert.NotContains(t, md, model.SummaryPrefix)
	assert.Contains(t, md, "### [User] <sub>09:31:00</sub>\n\nwhat now?\n\n*Attachment: q3.csv (text/csv)*")
	assert.Contains(t, md, "### [Bot] <sub>09:32:00</sub>\n\nship it")
}

func TestMarkdownExporter_Plain(t *testing.T) {
	exp, err := New(FormatMarkdown, &Options{})
	require.NoError(t, err)

	data, err := exp.Export([]*model.Chat{sampleChat(), sampleChat()})
	require.NoError(t, err)
	md := string(data)

	assert.True(t, strings.HasPrefix(md, "# Chat History\n\n"))
	assert.NotContains(t, md, "<sub>")
	assert.NotContains(t, md, "**ID**")
	assert.Equal(t, 2, strings.Count(md, "## Budget"))
	assert.Contains(t, md, "\n---\n\n## Budget")
}

func TestMarkdownExporter_Empty(t *testing.T) {
	data, err := NewMarkdownExporter(&Options{}).Export(nil)
	require.NoError(t, err)
	assert.Equal(t, "# Chat History\n\n*No chats stored.*\n", string(data))
}
