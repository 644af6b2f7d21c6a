// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatvault/internal/config"
	"github.com/jeranaias/chatvault/internal/storage"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}
	cmd.AddCommand(newConfigShowCmd(a), newConfigInitCmd(a))
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after files, .env and environment overrides are
applied. Secrets are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Encode(a.cfg.Redacted(), format)
			if err != nil {
				return err
			}
			if _, err := a.stdout.Write(data); err != nil {
				return err
			}

			fmt.Fprintln(a.stderr)
			fmt.Fprintln(a.stderr, RenderLabel("Database:")+ValueStyle.Render(filepath.Join(a.cfg.Storage.Dir, storage.DatabaseFile)))
			fmt.Fprintln(a.stderr, RenderLabel("Fast tier:")+ValueStyle.Render(filepath.Join(a.cfg.Storage.Dir, "fast")))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", config.FormatTOML, "output format: toml, yaml or json")
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var (
		format string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write a default configuration file",
		Long: `Write the default configuration. Without a file argument it goes to
~/.chatvault/config.<format>. An existing file is kept unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := initPath(args, format)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", config.FormatTOML, "file format: toml, yaml or json")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func initPath(args []string, format string) (string, error) {
	if len(args) == 1 {
		return config.ExpandHome(args[0]), nil
	}
	switch format {
	case config.FormatTOML:
		return config.ConfigPathTOML()
	case config.FormatYAML:
		return config.ConfigPathYAML()
	case config.FormatJSON:
		return config.ConfigPathJSON()
	default:
		return "", fmt.Errorf("unknown config format %q (want toml, yaml or json)", format)
	}
}
