// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatvault/internal/config"
	"github.com/jeranaias/chatvault/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// app carries the streams, global flags and loaded configuration shared by
// every command.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// interactive reports whether stdin can answer a confirmation prompt.
	interactive func() bool

	// readLine shows a prompt and returns the answer.
	readLine func(prompt string) (string, error)
	input    *bufio.Reader

	// Global flags
	configPath string
	dataDir    string
	verbose    bool

	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	a := &app{
		stdin:       stdin,
		stdout:      stdout,
		stderr:      stderr,
		interactive: func() bool { return isTerminalReader(stdin) },
	}
	a.readLine = a.bufferedPrompt
	return a
}

// Execute runs the chatvault command line against the process streams.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	if isTerminalReader(os.Stdin) && IsStdoutTTY() {
		a.readLine = linerPrompt
	}
	defer a.teardown()
	return newRootCmd(a).ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "chatvault",
		Short: "Durable local chat history with automatic compaction",
		Long: `chatvault keeps chat history in two tiers: a small fast blob for quick
startup and a SQLite database that survives everything else. Chats that grow
past the compaction threshold are summarized on save.`,
		Version:       fmt.Sprintf("%s (%s)", Version, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Help and completion work without a valid config
			if cmd.Name() == "help" || cmd.Name() == "completion" || (cmd.Parent() != nil && cmd.Parent().Name() == "completion") {
				return nil
			}
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	// Global flags
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ~/.chatvault/config.toml)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "override storage directory")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newStatsCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newDeleteCmd(a),
		newClearCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)
	return root
}

// setup loads configuration and builds the logger.
func (a *app) setup() error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.Storage.Dir = config.ExpandHome(a.dataDir)
	}
	a.cfg = cfg

	// Store events stay quiet on the terminal unless asked for.
	level := cfg.LogLevel()
	if a.verbose {
		level = slog.LevelDebug
	} else if level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	a.logger, a.closeLog = config.SetupLogger(a.stderr, cfg.Log.File, level)
	return nil
}

func (a *app) teardown() error {
	if a.closeLog == nil {
		return nil
	}
	err := a.closeLog()
	a.closeLog = nil
	return err
}

// openStore opens the store described by the loaded configuration.
func (a *app) openStore(ctx context.Context) (*storage.Store, error) {
	summarizer, err := a.cfg.BuildSummarizer()
	if err != nil {
		return nil, fmt.Errorf("build summarizer: %w", err)
	}
	store, err := storage.Open(ctx, a.cfg.StorageOptions(a.logger, summarizer))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

// withStore opens the store, runs fn and closes the store again.
func (a *app) withStore(ctx context.Context, fn func(*storage.Store) error) (err error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cerr)
		}
	}()
	return fn(store)
}

// warnf prints a styled warning to stderr.
func (a *app) warnf(format string, args ...any) {
	fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: "+fmt.Sprintf(format, args...)))
}
