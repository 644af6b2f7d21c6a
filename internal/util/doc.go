// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the chatvault packages.
//
// # Key Functions
//
// Files:
//   - AtomicWriteFile: crash-safe write via temp file, fsync and rename
//   - RemoveFile: delete a file, treating "already gone" as success
//
// Strings:
//   - Ellipsize: keep the first n runes and mark the cut with "..."
//   - FirstLine: first line of a string, trimmed
//
// # Usage
//
//	title := util.Ellipsize(firstMessage, 30)
//	err := util.AtomicWriteFile(path, blob, 0600)
package util
