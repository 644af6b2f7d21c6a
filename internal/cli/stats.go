// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatvault/internal/storage"
)

func newStatsCmd(a *app) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show durable storage statistics",
		Long: `Show aggregate statistics over the durable tier: number of chats, total
and largest serialized size in MB, and how many chats carry a summary.

Examples:
  chatvault stats
  chatvault stats --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store *storage.Store) error {
				stats := store.Stats(cmd.Context()).Format()
				if jsonOut {
					return outputJSON(a.stdout, "stats", func() (any, error) {
						return stats, nil
					})
				}
				a.printStats(stats)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func (a *app) printStats(s storage.FormattedStats) {
	fmt.Fprintln(a.stdout, TitleStyle.Render("Chat History Statistics"))
	fmt.Fprintln(a.stdout, RenderSeparator(40))
	fmt.Fprintf(a.stdout, "%s%s\n", RenderLabel("Total chats"), ValueStyle.Render(fmt.Sprint(s.TotalChats)))
	fmt.Fprintf(a.stdout, "%s%s\n", RenderLabel("Total size"), ValueStyle.Render(s.TotalSizeMB+" MB"))
	fmt.Fprintf(a.stdout, "%s%s\n", RenderLabel("Chats with summary"), ValueStyle.Render(fmt.Sprint(s.ChatsWithSummary)))
	fmt.Fprintf(a.stdout, "%s%s\n", RenderLabel("Largest chat"), ValueStyle.Render(s.LargestChatMB+" MB"))
}
