package searcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/kailas-cloud/feedsearch/internal/db"
)

var errUseAfterClose = errors.New("snapshot used after close")

// --- mock snapshot ---

type mockSnapshot struct {
	version int
	closes  atomic.Int32
}

func (s *mockSnapshot) Search(_ context.Context, _ *db.SearchRequest) (*db.SearchResult, error) {
	if s.closes.Load() > 0 {
		return nil, errUseAfterClose
	}
	return &db.SearchResult{}, nil
}

func (s *mockSnapshot) DocCount() (uint64, error) {
	if s.closes.Load() > 0 {
		return 0, errUseAfterClose
	}
	return uint64(s.version), nil
}

func (s *mockSnapshot) Close() error {
	s.closes.Add(1)
	return nil
}

// --- mock source ---

type mockSource struct {
	mu        sync.Mutex
	version   int
	opened    []*mockSnapshot
	reopenErr error
}

func (s *mockSource) open() *mockSnapshot {
	snap := &mockSnapshot{version: s.version}
	s.opened = append(s.opened, snap)
	return snap
}

func (s *mockSource) Snapshot() (db.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open(), nil
}

func (s *mockSource) Reopen(prev db.Snapshot) (db.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reopenErr != nil {
		return prev, false, s.reopenErr
	}
	if prev.(*mockSnapshot).version == s.version {
		return prev, false, nil
	}
	return s.open(), true, nil
}

func (s *mockSource) bump() {
	s.mu.Lock()
	s.version++
	s.mu.Unlock()
}

func (s *mockSource) snapshots() []*mockSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*mockSnapshot(nil), s.opened...)
}

// --- mock writer ---

type mockWriter struct {
	source   *mockSource
	flushed  atomic.Bool
	flushErr error
}

// commit simulates a background commit.
func (w *mockWriter) commit() {
	w.source.bump()
	w.flushed.Store(true)
}

func (w *mockWriter) FlushIfDirty(_ context.Context) (bool, error) {
	return false, w.flushErr
}

func (w *mockWriter) HasFlushed() bool {
	return w.flushed.Swap(false)
}

func newTestManager(t interface{ Fatalf(string, ...any) }) (*Manager, *mockSource, *mockWriter) {
	src := &mockSource{}
	w := &mockWriter{source: src}
	m, err := New(src, w, 0, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m, src, w
}
