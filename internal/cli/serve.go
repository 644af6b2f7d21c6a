// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatvault/internal/server"
	"github.com/jeranaias/chatvault/internal/storage"
)

// shutdownTimeout bounds the drain of in-flight requests and queued saves.
const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat history over HTTP",
		Long: `Serve the chat history to a local web client. Saves are queued and written
in the background; queued saves are flushed before reads and on shutdown.

Set server.token (or CHATVAULT_SERVER_TOKEN) to require a bearer token.

Examples:
  chatvault serve
  chatvault serve --port 9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.cfg.ServerOptions()
			if cmd.Flags().Changed("host") {
				opts.Host = host
			}
			if cmd.Flags().Changed("port") {
				opts.Port = port
			}
			return a.withStore(cmd.Context(), func(store *storage.Store) error {
				return a.serve(cmd.Context(), store, opts)
			})
		},
	}
	cmd.Flags().StringVar(&host, "host", server.DefaultHost, "listen host")
	cmd.Flags().IntVarP(&port, "port", "p", server.DefaultPort, "listen port")
	return cmd
}

// serve runs the HTTP server until ctx is cancelled.
func (a *app) serve(ctx context.Context, store *storage.Store, opts server.Config) error {
	srv := server.New(store, opts, a.logger)
	ln, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", srv.Addr(), err)
	}
	if opts.Token == "" && !isLoopback(ln.Addr()) {
		a.warnf("serving on %s without a token", ln.Addr())
	}
	fmt.Fprintf(a.stderr, "Serving chat history on http://%s (Ctrl+C to stop)\n", ln.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		// Serve failed on its own; still drain the save queue.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); err == nil {
			err = serr
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil {
		return err
	}
	fmt.Fprintln(a.stderr, "Server stopped.")
	return nil
}

func isLoopback(addr net.Addr) bool {
	tcp, ok := addr.(*net.TCPAddr)
	return ok && tcp.IP.IsLoopback()
}
