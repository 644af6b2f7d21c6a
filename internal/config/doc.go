// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for chatvault.
//
// Supports TOML, YAML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - StorageConfig: Data directory and fast tier budget
//   - CompactionConfig: When and how oversized chats are compacted
//   - SummarizerConfig: Which collaborator condenses chats
//   - LogConfig: Log level and optional JSON log file
//   - ServerConfig: Listen address, token and CORS origin for serve
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (CHATVAULT_*)
//   - ~/.chatvault/.env (never overrides variables already set)
//   - ~/.chatvault/config.toml, config.yaml or config.json, first found
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger, closeLog := config.SetupLogger(os.Stderr, cfg.Log.File, cfg.LogLevel())
//	defer closeLog()
//	summarizer, err := cfg.BuildSummarizer()
//	store, err := storage.Open(ctx, cfg.StorageOptions(logger, summarizer))
package config
