// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatvault/internal/model"
	"github.com/jeranaias/chatvault/internal/storage"
	"github.com/jeranaias/chatvault/internal/util"
)

// Fixed list column widths; the title takes what is left.
const (
	colMessages = 6
	colUpdated  = 12
	colSummary  = 4
	colGap      = 2
	minTitle    = 10
)

func newListCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored chats, most recent first",
		Long: `List stored chats, most recent first, with their message count, last
update and whether they carry a summary.

Examples:
  chatvault list
  chatvault list -n 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store *storage.Store) error {
				chats, report := store.Load(cmd.Context())
				if err := report.Err(); err != nil {
					a.warnf("history loaded from %s with errors: %v", report.Source, err)
				}
				if limit > 0 && len(chats) > limit {
					chats = chats[:limit]
				}
				a.printChatList(chats, GetTerminalWidth())
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "max chats to show (0 = all)")
	return cmd
}

func (a *app) printChatList(chats []*model.Chat, width int) {
	if len(chats) == 0 {
		fmt.Fprintln(a.stdout, "No chats stored.")
		return
	}

	idWidth := 0
	for _, c := range chats {
		idWidth = max(idWidth, len(c.ID))
	}
	titleWidth := width - idWidth - colMessages - colUpdated - colSummary - 4*colGap
	titleWidth = max(titleWidth, minTitle)

	gap := strings.Repeat(" ", colGap)
	row := func(id, title, msgs, updated, summary string) string {
		return strings.TrimRight(fitColumn(id, idWidth)+gap+fitColumn(title, titleWidth)+gap+
			fitColumn(msgs, colMessages)+gap+fitColumn(updated, colUpdated)+gap+fitColumn(summary, colSummary), " ")
	}

	fmt.Fprintln(a.stdout, TitleStyle.Render(fmt.Sprintf("Chats (%d)", len(chats))))
	fmt.Fprintln(a.stdout, DimStyle.Render(row("ID", "TITLE", "MSGS", "UPDATED", "SUM")))
	for _, c := range chats {
		summary := ""
		if c.HasSummary {
			summary = "yes"
		}
		fmt.Fprintln(a.stdout, row(c.ID, util.FirstLine(c.DisplayTitle()), fmt.Sprint(c.MessageCount()), formatTimeAgo(c.LastUpdated), summary))
	}
}
