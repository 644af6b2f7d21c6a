// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package compact

import (
	"fmt"
	"math"

	"github.com/jeranaias/chatvault/internal/model"
)

// Default policy values.
const (
	DefaultThresholdBytes = 100 * 1024 * 1024
	DefaultMinMessages    = 10
	DefaultSplitRatio     = 0.7
	DefaultFallbackKeep   = 20
)

// Policy controls when a chat is compacted and how it is partitioned.
type Policy struct {
	// ThresholdBytes is the serialized size a chat must exceed.
	ThresholdBytes int64

	// MinMessages is the fewest messages a chat needs before compacting.
	MinMessages int

	// SplitRatio is the fraction of messages folded into the summary.
	SplitRatio float64

	// FallbackKeep is how many recent messages survive a failed summary.
	FallbackKeep int

	// Resummarize allows an already summarized chat to be summarized again.
	// When false such a chat is truncated with its summary pinned.
	Resummarize bool
}

// DefaultPolicy returns the standard compaction policy.
func DefaultPolicy() Policy {
	return Policy{
		ThresholdBytes: DefaultThresholdBytes,
		MinMessages:    DefaultMinMessages,
		SplitRatio:     DefaultSplitRatio,
		FallbackKeep:   DefaultFallbackKeep,
		Resummarize:    true,
	}
}

// Validate checks that the policy values are usable.
func (p Policy) Validate() error {
	if p.ThresholdBytes <= 0 {
		return fmt.Errorf("compact: threshold must be positive, got %d", p.ThresholdBytes)
	}
	if p.MinMessages < 1 {
		return fmt.Errorf("compact: min messages must be at least 1, got %d", p.MinMessages)
	}
	if p.SplitRatio <= 0 || p.SplitRatio >= 1 {
		return fmt.Errorf("compact: split ratio must be between 0 and 1, got %v", p.SplitRatio)
	}
	if p.FallbackKeep < 1 {
		return fmt.Errorf("compact: fallback keep must be at least 1, got %d", p.FallbackKeep)
	}
	return nil
}

// ShouldCompact reports whether a chat of the given serialized size crosses
// the trigger.
func (p Policy) ShouldCompact(chat *model.Chat, size int) bool {
	return int64(size) > p.ThresholdBytes && len(chat.Messages) >= p.MinMessages
}

// SplitIndex returns the number of leading messages that go into the
// summary for a chat of n messages.
func (p Policy) SplitIndex(n int) int {
	return int(math.Floor(float64(n) * p.SplitRatio))
}
