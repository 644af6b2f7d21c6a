// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"sync"

	"github.com/jeranaias/chatvault/internal/model"
)

// =============================================================================
// SAVER
// =============================================================================

// SavedFunc receives the chats a background save wrote, after compaction,
// together with its report.
type SavedFunc func(chats []*model.Chat, report SaveReport)

// Saver writes chat history in the background. Callers that save on every
// mutation enqueue snapshots; snapshots that arrive while a save is running
// coalesce so only the newest one is written next.
type Saver struct {
	store   *Store
	onSaved SavedFunc

	// mu protects pending, hasPending, busy, closed and waiters
	mu         sync.Mutex
	pending    []*model.Chat
	hasPending bool
	busy       bool
	closed     bool
	waiters    []chan struct{}

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSaver starts the background writer. onSaved may be nil.
func NewSaver(store *Store, onSaved SavedFunc) *Saver {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Saver{
		store:   store,
		onSaved: onSaved,
		wake:    make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Enqueue snapshots chats for the next background save, replacing any
// snapshot still waiting.
func (s *Saver) Enqueue(chats []*model.Chat) error {
	snapshot := model.CloneAll(chats)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.pending = snapshot
	s.hasPending = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Pending reports whether a snapshot is waiting or being written.
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasPending || s.busy
}

// Flush blocks until every enqueued snapshot has been written.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	if !s.hasPending && !s.busy {
		s.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	s.waiters = append(s.waiters, ch)
	s.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes outstanding work and stops the background writer. The Store
// is left open.
func (s *Saver) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.Flush(context.Background())
	s.cancel()
	<-s.done
	return err
}

func (s *Saver) run() {
	defer close(s.done)
	for {
		select {
		case <-s.wake:
			s.drain()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Saver) drain() {
	for {
		s.mu.Lock()
		if !s.hasPending {
			s.busy = false
			waiters := s.waiters
			s.waiters = nil
			s.mu.Unlock()
			for _, ch := range waiters {
				close(ch)
			}
			return
		}
		chats := s.pending
		s.pending = nil
		s.hasPending = false
		s.busy = true
		s.mu.Unlock()

		report := s.store.Save(s.ctx, chats)
		if s.onSaved != nil {
			s.onSaved(chats, report)
		}
	}
}
