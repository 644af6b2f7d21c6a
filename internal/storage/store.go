// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jeranaias/chatvault/internal/compact"
	"github.com/jeranaias/chatvault/internal/model"
)

// DefaultFallbackChats is how many chats the degraded save keeps.
const DefaultFallbackChats = 10

// Options configures a Store. Either Dir or both Fast and Durable must be
// set.
type Options struct {
	// Dir holds the database and the fast tier directory.
	Dir string

	// DatabasePath overrides Dir/chatvault.db.
	DatabasePath string

	// FastKey overrides DefaultFastKey.
	FastKey string

	// FastQuota is the fast tier byte budget for the default file cache.
	// Zero means DefaultFastQuota; negative means unlimited.
	FastQuota int64

	// Fast overrides the default FileBlobCache under Dir/fast.
	Fast BlobCache

	// Durable overrides the default SQLite store.
	Durable RecordStore

	// Policy controls compaction. The zero value means compact.DefaultPolicy.
	Policy compact.Policy

	// Summarizer condenses oversized chats. Nil makes compaction truncate.
	Summarizer compact.Summarizer

	// FallbackChats overrides DefaultFallbackChats.
	FallbackChats int

	Logger *slog.Logger
}

// Store persists chat history in a fast tier and a durable tier. Mutating
// operations run one at a time in arrival order.
type Store struct {
	fast      BlobCache
	durable   RecordStore
	compactor *compact.Compactor
	key       string
	fallbackN int
	logger    *slog.Logger

	// writes serializes Save, Clear, Delete and fast tier repopulation.
	writes *semaphore.Weighted
	closed atomic.Bool

	// gen is bumped by every write so a Load can tell its durable read went
	// stale before repopulating the fast tier.
	gen atomic.Uint64
}

// Open builds a Store, creating the data directory, the fast tier and the
// database as needed.
func Open(ctx context.Context, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	policy := opts.Policy
	if policy == (compact.Policy{}) {
		policy = compact.DefaultPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	if opts.Dir == "" && (opts.Fast == nil || opts.Durable == nil) {
		return nil, errors.New("storage: data directory required")
	}

	fast := opts.Fast
	if fast == nil {
		quota := opts.FastQuota
		if quota == 0 {
			quota = DefaultFastQuota
		}
		fc, err := NewFileBlobCache(filepath.Join(opts.Dir, "fast"), quota)
		if err != nil {
			return nil, err
		}
		fast = fc
	}

	durable := opts.Durable
	if durable == nil {
		path := opts.DatabasePath
		if path == "" {
			path = filepath.Join(opts.Dir, DatabaseFile)
		}
		db, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		durable = db
	}

	key := opts.FastKey
	if key == "" {
		key = DefaultFastKey
	}
	fallbackN := opts.FallbackChats
	if fallbackN <= 0 {
		fallbackN = DefaultFallbackChats
	}

	return &Store{
		fast:      fast,
		durable:   durable,
		compactor: compact.NewCompactor(policy, opts.Summarizer, logger.With("component", "compact")),
		key:       key,
		fallbackN: fallbackN,
		logger:    logger,
		writes:    semaphore.NewWeighted(1),
	}, nil
}

// Close waits for any running write and releases the durable tier.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if err := s.writes.Acquire(context.Background(), 1); err == nil {
		defer s.writes.Release(1)
	}
	return s.durable.Close()
}

// Policy returns the compaction policy in use.
func (s *Store) Policy() compact.Policy {
	return s.compactor.Policy()
}

func (s *Store) lock(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.writes.Acquire(ctx, 1); err != nil {
		return err
	}
	if s.closed.Load() {
		s.writes.Release(1)
		return ErrClosed
	}
	return nil
}

func (s *Store) unlock() {
	s.writes.Release(1)
}

// =============================================================================
// SAVE
// =============================================================================

// Save persists the whole chat list, compacting oversized chats in place
// first. It waits for earlier writes to finish. ctx bounds the wait and the
// summarizer calls; once the tier writes begin they run to completion.
func (s *Store) Save(ctx context.Context, chats []*model.Chat) SaveReport {
	if err := s.lock(ctx); err != nil {
		return SaveReport{
			Chats:   len(chats),
			Fast:    TierOutcome{Tier: TierFast, Err: err},
			Durable: TierOutcome{Tier: TierDurable, Err: err},
		}
	}
	defer s.unlock()
	return s.save(ctx, chats)
}

func (s *Store) save(ctx context.Context, chats []*model.Chat) SaveReport {
	start := time.Now()
	s.gen.Add(1)
	report := SaveReport{}

	live := make([]*model.Chat, 0, len(chats))
	for _, chat := range chats {
		if chat == nil {
			report.Skipped++
			continue
		}
		if n := chat.Repair(); n > 0 {
			report.Repaired = append(report.Repaired, chat.ID)
			s.logger.Warn("CHAT_REPAIRED", "chat", chat.ID, "messages", n)
		}
		live = append(live, chat)
	}
	if report.Skipped > 0 {
		s.logger.Warn("NIL_CHATS_SKIPPED", "count", report.Skipped)
	}

	for _, chat := range live {
		res := s.compactor.Evaluate(ctx, chat)
		if res.Action != compact.ActionNone {
			report.Compactions = append(report.Compactions, res)
			s.logger.Info("CHAT_COMPACTED",
				"chat", chat.ID,
				"action", res.Action.String(),
				"size_mb", fmt.Sprintf("%.2f", float64(res.SizeBytes)/bytesPerMB),
				"before", res.Before,
				"after", res.After)
		} else if res.Err != nil {
			s.logger.Warn("CHAT_SIZE_FAILED", "chat", chat.ID, "error", res.Err)
		}
	}

	recs, kept := s.encode(live, &report)
	report.Chats = len(recs)

	// Past this point the caller's cancellation no longer applies.
	wctx := context.WithoutCancel(ctx)

	report.Fast = s.writeFast(recs)
	if !report.Fast.OK() {
		report.Evicted = s.evict(report.Fast.Err)
	}

	report.Durable = TierOutcome{Tier: TierDurable, Op: "replace"}
	report.Durable.Err = s.durable.ReplaceAll(wctx, recs)

	if !report.Durable.OK() {
		s.logger.Error("DURABLE_TX_FAILED", "chats", len(recs), "error", report.Durable.Err)
		fb := s.fallback(kept)
		report.Fallback = &fb
	}

	s.logger.Info("SAVE_COMPLETE",
		"chats", len(recs),
		"compacted", len(report.Compactions),
		"dropped", len(report.Dropped),
		"fast_ok", report.Fast.OK(),
		"durable_ok", report.Durable.OK(),
		"latency_ms", time.Since(start).Milliseconds())
	return report
}

// encode converts each chat on its own so one that cannot be encoded is left
// out instead of failing the whole list.
func (s *Store) encode(chats []*model.Chat, report *SaveReport) ([]model.Record, []*model.Chat) {
	recs := make([]model.Record, 0, len(chats))
	kept := make([]*model.Chat, 0, len(chats))
	for _, chat := range chats {
		rec, err := chat.Record()
		if err != nil {
			report.Dropped = append(report.Dropped, chat.ID)
			s.logger.Error("CHAT_ENCODE_FAILED", "chat", chat.ID, "error", err)
			continue
		}
		recs = append(recs, rec)
		kept = append(kept, chat)
	}
	return recs, kept
}

func (s *Store) writeFast(recs []model.Record) TierOutcome {
	out := TierOutcome{Tier: TierFast, Op: "put"}
	data, err := json.Marshal(recs)
	if err != nil {
		out.Err = err
		return out
	}
	out.Err = s.fast.Put(s.key, data)
	return out
}

// evict drops the stale fast tier entry after a failed write so Load falls
// through to the durable tier.
func (s *Store) evict(cause error) bool {
	if err := s.fast.Remove(s.key); err != nil {
		s.logger.Error("FAST_TIER_EVICT_FAILED", "key", s.key, "cause", cause, "error", err)
		return false
	}
	s.logger.Warn("FAST_TIER_EVICTED", "key", s.key, "cause", cause)
	return true
}

// fallback writes only the most recently updated chats to the fast tier.
func (s *Store) fallback(chats []*model.Chat) TierOutcome {
	out := TierOutcome{Tier: TierFast, Op: "fallback"}
	recent := model.MostRecent(chats, s.fallbackN)

	data, err := model.EncodeChats(recent)
	if err == nil {
		err = s.fast.Put(s.key, data)
	}
	if err != nil {
		out.Err = err
		s.logger.Error("FALLBACK_FAILED", "chats", len(recent), "error", err)
		return out
	}
	s.logger.Warn("FALLBACK_SAVE", "chats", len(recent), "dropped", len(chats)-len(recent))
	return out
}

// =============================================================================
// LOAD
// =============================================================================

// Load returns the stored history, most recently updated first. It never
// fails; unrecoverable problems yield an empty list.
func (s *Store) Load(ctx context.Context) ([]*model.Chat, LoadReport) {
	if s.closed.Load() {
		return []*model.Chat{}, LoadReport{
			Source: SourceNone,
			Fast:   TierOutcome{Tier: TierFast, Op: "get", Err: ErrClosed},
		}
	}
	return s.load(ctx, false)
}

// load reads the history. held tells whether the caller already owns the
// write slot.
func (s *Store) load(ctx context.Context, held bool) ([]*model.Chat, LoadReport) {
	report := LoadReport{Source: SourceNone}
	gen := s.gen.Load()

	chats, hit, err := s.readFast()
	report.Fast = TierOutcome{Tier: TierFast, Op: "get", Err: err}
	if hit {
		report.Source = SourceFast
		s.logger.Debug("LOAD_COMPLETE", "source", report.Source, "chats", len(chats))
		return chats, report
	}
	if err != nil && errors.Is(err, ErrCorruptRecord) {
		s.evict(err)
	} else if err != nil {
		s.logger.Warn("FAST_TIER_READ_FAILED", "key", s.key, "error", err)
	}

	durable := TierOutcome{Tier: TierDurable, Op: "all"}
	report.Durable = &durable

	recs, err := s.durable.All(ctx)
	if err != nil {
		durable.Err = err
		s.logger.Error("DURABLE_LOAD_FAILED", "error", err)
		return []*model.Chat{}, report
	}
	chats, err = model.FromRecords(recs)
	if err != nil {
		durable.Err = err
		s.logger.Error("DURABLE_LOAD_FAILED", "error", err)
		return []*model.Chat{}, report
	}
	report.Source = SourceDurable
	report.Repopulate = s.repopulate(chats, gen, held)

	s.logger.Debug("LOAD_COMPLETE", "source", report.Source, "chats", len(chats))
	return chats, report
}

// repopulate writes chats read from the durable tier back to the fast tier.
// It is a write, so it takes the write slot; it is skipped (nil outcome) when
// a write is running or ran after the durable read, since that write leaves
// the fast tier newer than chats.
func (s *Store) repopulate(chats []*model.Chat, gen uint64, held bool) *TierOutcome {
	if !held {
		if !s.writes.TryAcquire(1) {
			s.logger.Debug("REPOPULATE_SKIPPED", "reason", "write in progress")
			return nil
		}
		defer s.writes.Release(1)
	}
	if s.gen.Load() != gen {
		s.logger.Debug("REPOPULATE_SKIPPED", "reason", "history changed")
		return nil
	}

	out := TierOutcome{Tier: TierFast, Op: "repopulate"}
	data, err := model.EncodeChats(chats)
	if err == nil {
		err = s.fast.Put(s.key, data)
	}
	if err != nil {
		out.Err = err
		s.logger.Warn("REPOPULATE_FAILED", "key", s.key, "error", err)
	}
	return &out
}

// readFast returns hit=false with a nil error on a plain miss.
func (s *Store) readFast() ([]*model.Chat, bool, error) {
	data, err := s.fast.Get(s.key)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	recs, err := model.DecodeRecords(data)
	if err != nil {
		return nil, false, err
	}
	chats, err := model.FromRecords(recs)
	if err != nil {
		return nil, false, err
	}
	return chats, true, nil
}

// =============================================================================
// CLEAR AND DELETE
// =============================================================================

// Clear removes the fast tier entry and empties the durable tier.
func (s *Store) Clear(ctx context.Context) ClearReport {
	if err := s.lock(ctx); err != nil {
		return ClearReport{
			Fast:    TierOutcome{Tier: TierFast, Err: err},
			Durable: TierOutcome{Tier: TierDurable, Err: err},
		}
	}
	defer s.unlock()
	s.gen.Add(1)

	report := ClearReport{
		Fast:    TierOutcome{Tier: TierFast, Op: "remove", Err: s.fast.Remove(s.key)},
		Durable: TierOutcome{Tier: TierDurable, Op: "clear", Err: s.durable.Clear(context.WithoutCancel(ctx))},
	}
	if report.OK() {
		s.logger.Info("CLEAR_COMPLETE")
	} else {
		s.logger.Error("CLEAR_FAILED", "error", report.Err())
	}
	return report
}

// Delete removes one chat from both tiers by saving the history without it.
// found is false when no chat has the id, in which case nothing is written.
func (s *Store) Delete(ctx context.Context, id string) (report SaveReport, found bool) {
	if err := s.lock(ctx); err != nil {
		return SaveReport{
			Fast:    TierOutcome{Tier: TierFast, Err: err},
			Durable: TierOutcome{Tier: TierDurable, Err: err},
		}, false
	}
	defer s.unlock()

	chats, _ := s.load(context.WithoutCancel(ctx), true)
	kept := make([]*model.Chat, 0, len(chats))
	for _, c := range chats {
		if c.ID == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		s.logger.Warn("DELETE_NOT_FOUND", "chat", id)
		return SaveReport{Chats: len(chats)}, false
	}

	report = s.save(ctx, kept)
	s.logger.Info("CHAT_DELETED", "chat", id, "remaining", len(kept))
	return report, true
}
