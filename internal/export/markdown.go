// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/chatvault/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports chats to Markdown.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export renders every chat as a level-two section, in the given order.
func (e *MarkdownExporter) Export(chats []*model.Chat) ([]byte, error) {
	var sb strings.Builder
	exported := e.options.now()

	// YAML front matter
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("chats: %d\n", len(chats)))
		sb.WriteString(fmt.Sprintf("exported: %s\n", exported.Format(time.RFC3339)))
		sb.WriteString("generator: chatvault\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString("# Chat History\n\n")
	if len(chats) == 0 {
		sb.WriteString("*No chats stored.*\n")
		return []byte(sb.String()), nil
	}

	for i, chat := range chats {
		if chat == nil {
			return nil, fmt.Errorf("chat %d is nil", i)
		}
		e.writeChat(&sb, chat)
		if i < len(chats)-1 {
			sb.WriteString("---\n\n")
		}
	}
	return []byte(sb.String()), nil
}

func (e *MarkdownExporter) writeChat(sb *strings.Builder, chat *model.Chat) {
	sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdown(chat.DisplayTitle())))

	if e.options.IncludeMetadata {
		sb.WriteString(fmt.Sprintf("- **ID**: `%s`\n", chat.ID))
		sb.WriteString(fmt.Sprintf("- **Created**: %s\n", formatTimestamp(chat.CreatedAt)))
		sb.WriteString(fmt.Sprintf("- **Last Updated**: %s\n", formatTimestamp(chat.LastUpdated)))
		sb.WriteString(fmt.Sprintf("- **Messages**: %d\n", chat.MessageCount()))
		if chat.HasSummary {
			sb.WriteString("- **Summarized**: yes\n")
		}
		sb.WriteString("\n")
	}

	for _, msg := range chat.Messages {
		label := formatRoleLabel(msg)
		if e.options.IncludeTimestamps && !msg.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n", label, formatShortTimestamp(msg.CreatedAt)))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", label))
		}

		text := strings.TrimSpace(msg.Text)
		if msg.IsSummary {
			text = "> " + strings.ReplaceAll(strings.TrimPrefix(text, model.SummaryPrefix), "\n", "\n> ")
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")

		if att := msg.Attachment; att != nil {
			sb.WriteString(fmt.Sprintf("*Attachment: %s (%s)*\n\n", escapeMarkdown(att.Name), att.Type))
		}
	}
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func formatRoleLabel(msg *model.ChatMessage) string {
	switch {
	case msg.IsSummary:
		return "[Summary]"
	case msg.IsError:
		return "[Error]"
	case msg.Role == model.RoleUser:
		return "[User]"
	case msg.Role == model.RoleBot:
		return "[Bot]"
	default:
		return "[Unknown]"
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

func formatShortTimestamp(t time.Time) string {
	return t.UTC().Format("15:04:05")
}

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in titles/headings
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

func (e *MarkdownExporter) FileExtension() string { return ".md" }

func (e *MarkdownExporter) MimeType() string { return "text/markdown" }
