// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chat history across restarts in two tiers.
//
// The fast tier holds the whole history as one JSON blob under a fixed key
// and serves reads. The durable tier is a SQLite database with one row per
// chat and is the source of truth when the fast tier is missing, full or
// corrupt.
//
// # Key Types
//
//   - Store: Save, Load, Clear, Delete and Stats over both tiers
//   - BlobCache: the fast tier (FileBlobCache, MemoryBlobCache)
//   - RecordStore: the durable tier (SQLiteStore)
//   - Saver: coalescing background writer for callers that save often
//   - SaveReport, LoadReport, ClearReport: per-tier outcomes
//
// # Failure Handling
//
// No Store operation returns an error. Tier failures are logged and
// reported through the outcome types:
//
//   - fast tier write refused: the stale entry is evicted, the durable write
//     still happens
//   - durable transaction failed: the ten most recently updated chats are
//     written to the fast tier only
//   - corrupt data on load: treated as no data
//
// # Usage
//
//	store, err := storage.Open(ctx, storage.Options{Dir: dataDir})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	chats, _ := store.Load(ctx)
//	report := store.Save(ctx, chats)
package storage
