// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatvault/internal/storage"
)

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one chat",
		Long: `Delete one chat from both tiers.

Examples:
  chatvault delete chat_6f1c...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store *storage.Store) error {
				report, found := store.Delete(cmd.Context(), args[0])
				if !found {
					return fmt.Errorf("chat not found: %s", args[0])
				}
				if !report.OK() {
					a.printSaveReport(report)
					return fmt.Errorf("delete incomplete: %w", report.Err())
				}
				fmt.Fprintf(a.stdout, "Deleted: %s\n", args[0])
				return nil
			})
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all stored chats",
		Long: `Delete every chat from both tiers. Asks for confirmation unless --yes is
given; without a terminal, --yes is required.

Examples:
  chatvault clear
  chatvault clear --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store *storage.Store) error {
				details := map[string]string{
					"Chats": fmt.Sprint(store.Stats(cmd.Context()).TotalChats),
				}
				ok, err := a.requireConfirmation(yes, "delete all chat history", details)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(a.stdout, "Cancelled.")
					return nil
				}

				report := store.Clear(cmd.Context())
				if !report.OK() {
					return fmt.Errorf("clear incomplete: %w", report.Err())
				}
				fmt.Fprintln(a.stdout, SuccessStyle.Render("Chat history cleared."))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
