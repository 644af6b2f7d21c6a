// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders chat history for use outside chatvault.
//
// # Supported Formats
//
//   - JSON: the persisted record array, re-importable with chatvault import
//   - Markdown: human-readable, one section per chat
//
// # Usage
//
//	exporter, err := export.New(export.FormatMarkdown, export.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	data, err := exporter.Export(chats)
package export
