// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/chatvault/internal/compact"
)

// Tier names a storage tier.
type Tier string

const (
	TierFast    Tier = "fast"
	TierDurable Tier = "durable"
)

// TierOutcome is the result of one operation against one tier.
type TierOutcome struct {
	Tier Tier
	Op   string
	Err  error
}

// OK reports whether the operation succeeded.
func (o TierOutcome) OK() bool {
	return o.Err == nil
}

func (o TierOutcome) String() string {
	if o.Op == "" {
		return string(o.Tier) + ": skipped"
	}
	if o.Err != nil {
		return fmt.Sprintf("%s %s: %v", o.Tier, o.Op, o.Err)
	}
	return fmt.Sprintf("%s %s: ok", o.Tier, o.Op)
}

// =============================================================================
// SAVE REPORT
// =============================================================================

// SaveReport describes what a Save did.
type SaveReport struct {
	// Chats is the number of chats written.
	Chats int

	// Skipped counts nil entries left out of the list.
	Skipped int

	// Repaired holds the IDs of chats that had broken messages removed or
	// cleaned before saving. Dropped holds the IDs of chats that still could
	// not be encoded and were left out.
	Repaired []string
	Dropped  []string

	// Compactions holds one entry per chat the policy acted on.
	Compactions []compact.Result

	// Fast is the fast tier write. When it fails, Evicted tells whether the
	// stale entry was removed.
	Fast    TierOutcome
	Evicted bool

	// Durable is the transaction replacing the durable history.
	Durable TierOutcome

	// Fallback is set only when the durable transaction failed and the most
	// recent chats were written to the fast tier instead.
	Fallback *TierOutcome
}

// OK reports whether both tiers were written.
func (r SaveReport) OK() bool {
	return r.Fast.OK() && r.Durable.OK()
}

// Summarized counts chats whose older messages became a summary.
func (r SaveReport) Summarized() int {
	return r.countAction(compact.ActionSummarized)
}

// Truncated counts chats that were cut down without a summary.
func (r SaveReport) Truncated() int {
	return r.countAction(compact.ActionTruncated)
}

func (r SaveReport) countAction(a compact.Action) int {
	n := 0
	for _, c := range r.Compactions {
		if c.Action == a {
			n++
		}
	}
	return n
}

// Err joins every failure recorded in the report.
func (r SaveReport) Err() error {
	errs := []error{r.Fast.Err, r.Durable.Err}
	if r.Fallback != nil {
		errs = append(errs, r.Fallback.Err)
	}
	for _, c := range r.Compactions {
		errs = append(errs, c.Err)
	}
	return errors.Join(errs...)
}

func (r SaveReport) String() string {
	parts := []string{
		fmt.Sprintf("%d chats", r.Chats),
		r.Fast.String(),
		r.Durable.String(),
	}
	if n := r.Summarized(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d summarized", n))
	}
	if n := r.Truncated(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d truncated", n))
	}
	if r.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", r.Skipped))
	}
	if len(r.Repaired) > 0 {
		parts = append(parts, fmt.Sprintf("%d repaired", len(r.Repaired)))
	}
	if len(r.Dropped) > 0 {
		parts = append(parts, fmt.Sprintf("%d dropped", len(r.Dropped)))
	}
	if r.Fallback != nil {
		parts = append(parts, "fallback "+r.Fallback.String())
	}
	return strings.Join(parts, ", ")
}

// =============================================================================
// LOAD REPORT
// =============================================================================

// Source names where Load found the history.
type Source string

const (
	SourceNone    Source = "none"
	SourceFast    Source = "fast"
	SourceDurable Source = "durable"
)

// LoadReport describes what a Load did.
type LoadReport struct {
	Source Source

	// Fast is the fast tier read. A missing key is a miss, not an error.
	Fast TierOutcome

	// Durable is set when the fast tier could not serve the read.
	Durable *TierOutcome

	// Repopulate is set when durable data was copied back to the fast tier.
	// It stays nil when a concurrent write made the durable read stale.
	Repopulate *TierOutcome
}

// Err joins every failure recorded in the report.
func (r LoadReport) Err() error {
	errs := []error{r.Fast.Err}
	if r.Durable != nil {
		errs = append(errs, r.Durable.Err)
	}
	if r.Repopulate != nil {
		errs = append(errs, r.Repopulate.Err)
	}
	return errors.Join(errs...)
}

// =============================================================================
// CLEAR REPORT
// =============================================================================

// ClearReport describes what a Clear did.
type ClearReport struct {
	Fast    TierOutcome
	Durable TierOutcome
}

// OK reports whether both tiers were emptied.
func (r ClearReport) OK() bool {
	return r.Fast.OK() && r.Durable.OK()
}

// Err joins the failures of both tiers.
func (r ClearReport) Err() error {
	return errors.Join(r.Fast.Err, r.Durable.Err)
}
