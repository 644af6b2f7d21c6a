// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatvault/internal/compact"
	"github.com/jeranaias/chatvault/internal/model"
)

var base = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// makeChat builds a chat with n alternating messages last updated at
// base+offset.
func makeChat(title string, n int, offset time.Duration) *model.Chat {
	chat := model.NewChat(title)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			chat.AddMessage(model.NewUserMessage(fmt.Sprintf("%s question %d", title, i), nil))
		} else {
			chat.AddMessage(model.NewBotMessage(fmt.Sprintf("%s answer %d", title, i)))
		}
	}
	chat.CreatedAt = base
	chat.LastUpdated = base.Add(offset)
	return chat
}

func makeChats(count, msgs int) []*model.Chat {
	chats := make([]*model.Chat, count)
	for i := range chats {
		chats[i] = makeChat(fmt.Sprintf("chat%02d", i), msgs, time.Duration(i)*time.Minute)
	}
	return chats
}

func ids(chats []*model.Chat) []string {
	out := make([]string, len(chats))
	for i, c := range chats {
		out[i] = c.ID
	}
	return out
}

// smallPolicy compacts anything over 512 bytes so fixtures stay tiny.
func smallPolicy() compact.Policy {
	p := compact.DefaultPolicy()
	p.ThresholdBytes = 512
	return p
}

func openTestStore(t *testing.T, modify func(*Options)) *Store {
	t.Helper()
	opts := Options{Dir: t.TempDir()}
	if modify != nil {
		modify(&opts)
	}
	store, err := Open(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// FAKES
// =============================================================================

type stubSummarizer struct {
	reply string
	err   error
	calls atomic.Int32
}

func (s *stubSummarizer) Summarize(_ context.Context, _ string) (string, error) {
	s.calls.Add(1)
	return s.reply, s.err
}

// failingRecords is a RecordStore whose every call fails.
type failingRecords struct{}

var errDiskGone = errors.New("disk gone")

func (failingRecords) ReplaceAll(context.Context, []model.Record) error {
	return fmt.Errorf("%w: %w", ErrTransaction, errDiskGone)
}
func (failingRecords) All(context.Context) ([]model.Record, error) { return nil, errDiskGone }
func (failingRecords) Clear(context.Context) error                 { return errDiskGone }
func (failingRecords) Close() error                                { return nil }

// trackingRecords wraps a RecordStore, counts writes and records the peak
// number of concurrent ReplaceAll calls. When gate is non-nil each
// ReplaceAll waits on it first.
type trackingRecords struct {
	RecordStore
	gate chan struct{}

	mu       sync.Mutex
	inflight int
	peak     int
	writes   [][]string
}

func (r *trackingRecords) ReplaceAll(ctx context.Context, recs []model.Record) error {
	r.mu.Lock()
	r.inflight++
	if r.inflight > r.peak {
		r.peak = r.inflight
	}
	r.mu.Unlock()

	if r.gate != nil {
		<-r.gate
	}
	time.Sleep(time.Millisecond)
	err := r.RecordStore.ReplaceAll(ctx, recs)

	r.mu.Lock()
	r.inflight--
	written := make([]string, len(recs))
	for i, rec := range recs {
		written[i] = rec.ID
	}
	r.writes = append(r.writes, written)
	r.mu.Unlock()
	return err
}

func (r *trackingRecords) Peak() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peak
}

func (r *trackingRecords) Writes() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.writes...)
}

// stallingRecords wraps a RecordStore. Once armed, the next All call reads
// the records, closes read and then waits on release before returning them.
type stallingRecords struct {
	RecordStore
	armed   atomic.Bool
	read    chan struct{}
	release chan struct{}
}

func (r *stallingRecords) All(ctx context.Context) ([]model.Record, error) {
	recs, err := r.RecordStore.All(ctx)
	if r.armed.CompareAndSwap(true, false) {
		close(r.read)
		<-r.release
	}
	return recs, err
}
