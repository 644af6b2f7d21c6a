// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"

	"github.com/jeranaias/chatvault/internal/compact"
	"github.com/jeranaias/chatvault/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrCapacityExceeded is returned when the fast tier refuses a write.
	ErrCapacityExceeded = errors.New("fast tier capacity exceeded")

	// ErrTransaction is returned when the durable tier is unavailable or
	// rejects a write.
	ErrTransaction = errors.New("durable transaction failed")

	// ErrNotFound is returned for an absent fast tier key or chat.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned when a closed Store or Saver is used.
	ErrClosed = errors.New("store closed")

	// ErrInvalidKey is returned for a fast tier key that cannot name a file.
	ErrInvalidKey = errors.New("invalid fast tier key")
)

// Re-exported so callers can match every failure kind from one package.
var (
	ErrCorruptRecord = model.ErrCorruptRecord
	ErrSummarization = compact.ErrSummarization
)
