// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jeranaias/chatvault/internal/model"
	"github.com/jeranaias/chatvault/internal/storage"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultHost keeps the API on the loopback interface.
	DefaultHost = "127.0.0.1"

	// DefaultPort is the default port for the HTTP server.
	DefaultPort = 8787

	// DefaultMaxBodyBytes bounds a PUT /api/chats body (64MB).
	DefaultMaxBodyBytes = 64 * 1024 * 1024
)

// ============================================================================
// SERVER
// ============================================================================

// Config configures a Server. Zero fields take defaults.
type Config struct {
	Host string
	Port int

	// Token, when set, is required as "Authorization: Bearer <token>".
	Token string

	// AllowedOrigin is echoed in CORS headers; empty disables CORS.
	AllowedOrigin string

	MaxBodyBytes int64
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return c
}

// Server serves one Store. PUT requests go through a background Saver so a
// client saving on every keystroke never waits on the durable tier.
type Server struct {
	cfg    Config
	store  *storage.Store
	saver  *storage.Saver
	logger *slog.Logger
	engine *gin.Engine
	http   *http.Server
}

// New creates a Server over store. The store stays owned by the caller and
// must outlive Shutdown.
func New(store *storage.Store, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		cfg:    cfg.withDefaults(),
		store:  store,
		logger: logger,
	}
	s.saver = storage.NewSaver(store, s.onSaved)

	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(
		gin.Recovery(),
		requestLogger(logger),
		cors(s.cfg.AllowedOrigin),
		bearerAuth(s.cfg.Token),
	)
	s.setupRoutes()

	s.http = &http.Server{
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api")
	api.GET("/chats", s.handleList)
	api.GET("/chats/:id", s.handleGet)
	api.PUT("/chats", bodyLimit(s.cfg.MaxBodyBytes), s.handleSave)
	api.POST("/flush", s.handleFlush)
	api.DELETE("/chats/:id", s.handleDelete)
	api.DELETE("/chats", s.handleClear)
	api.GET("/stats", s.handleStats)
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// ListenAndServe listens on Addr and serves until Shutdown. It returns nil
// after a clean shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("SERVER_START", "addr", ln.Addr().String(), "auth", s.cfg.Token != "")
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, then writes any queued save.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("SERVER_SHUTDOWN", "pending", s.saver.Pending())

	return errors.Join(s.http.Shutdown(ctx), s.saver.Close())
}

func (s *Server) onSaved(chats []*model.Chat, report storage.SaveReport) {
	if !report.OK() {
		s.logger.Error("BACKGROUND_SAVE_FAILED", "chats", len(chats), "report", report.String())
		return
	}
	s.logger.Debug("BACKGROUND_SAVE_COMPLETE", "chats", len(chats))
}
