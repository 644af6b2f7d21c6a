// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatvault/internal/export"
	"github.com/jeranaias/chatvault/internal/model"
	"github.com/jeranaias/chatvault/internal/storage"
)

func newShowCmd(a *app) *cobra.Command {
	var markdown bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one chat's messages",
		Long: `Print one chat's messages as "role: text" lines, oldest first. With
--markdown the chat is rendered as formatted Markdown instead.

Examples:
  chatvault show chat_6f1c...
  chatvault show --markdown chat_6f1c...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store *storage.Store) error {
				chats, report := store.Load(cmd.Context())
				if err := report.Err(); err != nil {
					a.warnf("history loaded from %s with errors: %v", report.Source, err)
				}
				chat := findChat(chats, args[0])
				if chat == nil {
					return fmt.Errorf("chat not found: %s", args[0])
				}
				if markdown {
					return a.printChatMarkdown(chat)
				}
				a.printChat(chat)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&markdown, "markdown", "m", false, "render as Markdown")
	return cmd
}

func (a *app) printChat(chat *model.Chat) {
	header := chat.DisplayTitle()
	if size, err := chat.SizeBytes(); err == nil {
		header += DimStyle.Render(fmt.Sprintf("  (%d messages, %s)", chat.MessageCount(), formatBytes(int64(size))))
	}
	fmt.Fprintln(a.stderr, TitleStyle.Render(header))

	for _, msg := range chat.Messages {
		role := RoleUserStyle.Render(msg.Role.String())
		if msg.Role == model.RoleBot {
			role = RoleBotStyle.Render(msg.Role.String())
		}
		fmt.Fprintf(a.stdout, "%s: %s\n", role, msg.Text)
		if att := msg.Attachment; att != nil {
			fmt.Fprintln(a.stdout, DimStyle.Render(fmt.Sprintf("  [attachment: %s (%s)]", att.Name, att.Type)))
		}
	}
}

func (a *app) printChatMarkdown(chat *model.Chat) error {
	md, err := export.NewMarkdownExporter(export.DefaultOptions()).Export([]*model.Chat{chat})
	if err != nil {
		return err
	}
	fmt.Fprint(a.stdout, renderMarkdown(string(md), GetTerminalWidth()))
	return nil
}
