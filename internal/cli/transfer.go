// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatvault/internal/export"
	"github.com/jeranaias/chatvault/internal/model"
	"github.com/jeranaias/chatvault/internal/storage"
	"github.com/jeranaias/chatvault/internal/util"
)

func newImportCmd(a *app) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import chats from a JSON export",
		Long: `Import a JSON array of chats, as written by export, and save it. Imported
chats replace stored chats with the same id; the rest are kept unless
--replace is given. Oversized chats are compacted on the way in.

Use "-" to read from stdin.

Examples:
  chatvault import backup.json
  chatvault import --replace backup.json
  cat backup.json | chatvault import -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readInput(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			recs, err := model.DecodeRecords(data)
			if err != nil {
				return err
			}
			incoming, err := model.FromRecords(recs)
			if err != nil {
				return err
			}

			return a.withStore(cmd.Context(), func(store *storage.Store) error {
				chats := incoming
				if !replace {
					existing, report := store.Load(cmd.Context())
					if err := report.Err(); err != nil {
						return fmt.Errorf("load existing history: %w", err)
					}
					chats = mergeChats(existing, incoming)
				}

				report := store.Save(cmd.Context(), chats)
				a.printSaveReport(report)
				if !report.OK() {
					return fmt.Errorf("save incomplete: %w", report.Err())
				}
				fmt.Fprintln(a.stdout, SuccessStyle.Render(
					fmt.Sprintf("Imported %d chats (%d stored)", len(incoming), report.Chats)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the whole history instead of merging")
	return cmd
}

func (a *app) printSaveReport(r storage.SaveReport) {
	for _, c := range r.Compactions {
		line := fmt.Sprintf("  %s %s: %d -> %d messages", c.Action, c.ChatID, c.Before, c.After)
		if c.Err != nil {
			line += fmt.Sprintf(" (%v)", c.Err)
		}
		fmt.Fprintln(a.stdout, DimStyle.Render(line))
	}
	fmt.Fprintf(a.stdout, "  %s %s\n", RenderStatus(r.Fast.OK(), false), r.Fast)
	fmt.Fprintf(a.stdout, "  %s %s\n", RenderStatus(r.Durable.OK(), false), r.Durable)
	if r.Fallback != nil {
		fmt.Fprintf(a.stdout, "  %s fallback %s\n", RenderStatus(r.Fallback.OK(), true), r.Fallback)
	}
}

func newExportCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export all chats as JSON or Markdown",
		Long: `Export the loaded history, most recent first. JSON output is the array
import reads back; Markdown is for reading. Writes to stdout unless a file
is given.

Examples:
  chatvault export > backup.json
  chatvault export backup.json
  chatvault export --format markdown history.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			exporter, err := export.New(f, export.DefaultOptions())
			if err != nil {
				return err
			}

			return a.withStore(cmd.Context(), func(store *storage.Store) error {
				chats, report := store.Load(cmd.Context())
				if err := report.Err(); err != nil {
					a.warnf("history loaded from %s with errors: %v", report.Source, err)
				}

				data, err := exporter.Export(chats)
				if err != nil {
					return err
				}
				if len(args) == 0 || args[0] == "-" {
					_, err := a.stdout.Write(data)
					return err
				}
				if err := util.AtomicWriteFile(args[0], data, 0600); err != nil {
					return fmt.Errorf("write %s: %w", args[0], err)
				}
				fmt.Fprintf(a.stderr, "Exported %d chats to %s\n", len(chats), args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or markdown")
	return cmd
}
