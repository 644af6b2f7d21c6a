// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the chatvault command line.
//
// Every command opens the store from the loaded configuration, performs one
// operation and closes it again:
//
//	chatvault stats [--json]
//	chatvault list [--limit N]
//	chatvault show <id> [--markdown]
//	chatvault import <file.json> [--replace]
//	chatvault export [file] [--format json|markdown]
//	chatvault delete <id>
//	chatvault clear [--yes]
//
// serve keeps the store open and exposes it over HTTP until interrupted:
//
//	chatvault serve [--host H] [--port N]
//
// config show and config init print or write the configuration file.
//
// Global flags --config, --data-dir and --verbose are accepted everywhere.
package cli
