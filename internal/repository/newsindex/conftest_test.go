package newsindex

import (
	"context"
	"sync"

	"github.com/kailas-cloud/feedsearch/internal/db"
)

// mockIndex records batches; it implements db.Index.
type mockIndex struct {
	mu         sync.Mutex
	batches    [][]db.DocOp
	docs       map[string]map[string]any
	batchErr   error
	clears     int
	optimizes  int
	optimizeEr error
}

func newMockIndex() *mockIndex {
	return &mockIndex{docs: make(map[string]map[string]any)}
}

func (m *mockIndex) Snapshot() (db.Snapshot, error) { return nil, db.ErrUnsupported }

func (m *mockIndex) Reopen(prev db.Snapshot) (db.Snapshot, bool, error) { return prev, false, nil }

func (m *mockIndex) Batch(_ context.Context, ops []db.DocOp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.batchErr != nil {
		return m.batchErr
	}
	m.batches = append(m.batches, ops)
	for _, op := range ops {
		switch op.Kind {
		case db.DocIndex:
			m.docs[op.ID] = op.Document
		case db.DocDelete:
			delete(m.docs, op.ID)
		}
	}
	return nil
}

func (m *mockIndex) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	m.docs = make(map[string]map[string]any)
	return nil
}

func (m *mockIndex) Optimize(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.optimizes++
	return m.optimizeEr
}

func (m *mockIndex) DocCount() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint64(len(m.docs)), nil
}

func (m *mockIndex) Close() error { return nil }

func (m *mockIndex) batchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}
