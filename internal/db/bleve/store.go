// Package bleve implements db.Index on top of a bleve inverted index.
package bleve

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/index/scorch/mergeplan"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/kailas-cloud/feedsearch/internal/db"
)

// Compile-time check: Store implements db.Index.
var _ db.Index = (*Store)(nil)

// clearBatchSize bounds the number of deletions per batch when clearing.
const clearBatchSize = 1000

// Config holds index location settings.
type Config struct {
	// Path of the on-disk index; empty keeps the index in memory.
	Path string
}

// Store implements db.Index with bleve.
type Store struct {
	mu      sync.RWMutex
	index   bleve.Index
	mapping mapping.IndexMapping
	onDisk  bool
	closed  bool
}

// Open opens the index at cfg.Path, creating it from def when it does not exist.
func Open(cfg Config, def *db.IndexDefinition) (*Store, error) {
	im, err := BuildIndexMapping(def)
	if err != nil {
		return nil, &db.Error{Op: db.OpOpen, Err: err}
	}

	var idx bleve.Index
	if cfg.Path == "" {
		idx, err = bleve.NewMemOnly(im)
	} else {
		idx, err = openOrCreate(cfg.Path, im)
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpOpen, Err: err}
	}

	return &Store{index: idx, mapping: idx.Mapping(), onDisk: cfg.Path != ""}, nil
}

func openOrCreate(path string, im mapping.IndexMapping) (bleve.Index, error) {
	idx, err := bleve.Open(path)
	if err == nil {
		return idx, nil
	}
	if !errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	idx, err = bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return idx, nil
}

// Snapshot opens a view of the latest committed state.
func (s *Store) Snapshot() (db.Snapshot, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) snapshot() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, &db.Error{Op: db.OpSnapshot, Err: db.ErrClosed}
	}
	adv, err := s.index.Advanced()
	if err != nil {
		return nil, &db.Error{Op: db.OpSnapshot, Err: err}
	}
	r, err := adv.Reader()
	if err != nil {
		return nil, &db.Error{Op: db.OpSnapshot, Err: err}
	}
	return newSnapshot(r, s.mapping), nil
}

// Reopen opens a newer view than prev, or returns prev unchanged when the
// engine still serves the same reader.
func (s *Store) Reopen(prev db.Snapshot) (db.Snapshot, bool, error) {
	next, err := s.snapshot()
	if err != nil {
		return prev, false, err
	}
	if p, ok := prev.(*Snapshot); ok && p.sameReader(next) {
		_ = next.Close()
		return prev, false, nil
	}
	return next, true, nil
}

// Batch applies ops atomically; once it returns, new snapshots observe them.
func (s *Store) Batch(ctx context.Context, ops []db.DocOp) error {
	if len(ops) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return &db.Error{Op: db.OpBatch, Err: db.ErrClosed}
	}

	b := s.index.NewBatch()
	for _, op := range ops {
		switch op.Kind {
		case db.DocIndex:
			if err := b.Index(op.ID, op.Document); err != nil {
				return &db.Error{Op: db.OpBatch, Err: fmt.Errorf("document %s: %w", op.ID, err)}
			}
		case db.DocDelete:
			b.Delete(op.ID)
		default:
			return &db.Error{Op: db.OpBatch, Err: fmt.Errorf("unknown op kind %d", op.Kind)}
		}
	}
	if err := s.index.Batch(b); err != nil {
		return &db.Error{Op: db.OpBatch, Err: err}
	}
	return nil
}

// Clear deletes every document.
func (s *Store) Clear(ctx context.Context) error {
	ids, err := s.allIDs()
	if err != nil {
		return &db.Error{Op: db.OpClear, Err: err}
	}

	for start := 0; start < len(ids); start += clearBatchSize {
		end := min(start+clearBatchSize, len(ids))
		ops := make([]db.DocOp, 0, end-start)
		for _, id := range ids[start:end] {
			ops = append(ops, db.DocOp{Kind: db.DocDelete, ID: id})
		}
		if err := s.Batch(ctx, ops); err != nil {
			return &db.Error{Op: db.OpClear, Err: err}
		}
	}
	return nil
}

func (s *Store) allIDs() ([]string, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	defer func() { _ = snap.Close() }()
	return snap.ids()
}

type forceMerger interface {
	ForceMerge(ctx context.Context, mo *mergeplan.MergePlanOptions) error
}

// Optimize merges persisted segments down to one. In-memory indexes are left
// as they are. Existing snapshots stay valid.
func (s *Store) Optimize(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return &db.Error{Op: db.OpOptimize, Err: db.ErrClosed}
	}
	if !s.onDisk {
		return nil
	}

	adv, err := s.index.Advanced()
	if err != nil {
		return &db.Error{Op: db.OpOptimize, Err: err}
	}
	fm, ok := adv.(forceMerger)
	if !ok {
		return nil
	}
	opts := mergeplan.SingleSegmentMergePlanOptions
	if err := fm.ForceMerge(ctx, &opts); err != nil {
		return &db.Error{Op: db.OpOptimize, Err: err}
	}
	return nil
}

// DocCount returns the number of documents in the latest committed state.
func (s *Store) DocCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, &db.Error{Op: db.OpSnapshot, Err: db.ErrClosed}
	}
	n, err := s.index.DocCount()
	if err != nil {
		return 0, &db.Error{Op: db.OpSnapshot, Err: err}
	}
	return n, nil
}

// Close closes the index. Snapshots must be closed first.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.index.Close()
}
