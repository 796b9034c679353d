// Package newsindex is the single writer of the news index: it maps news
// items to documents, queues mutations and commits them in batches.
package newsindex

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/feedsearch/internal/db"
	"github.com/kailas-cloud/feedsearch/internal/domain"
)

// DefaultBatchSize is the number of pending mutations that triggers a commit.
const DefaultBatchSize = 500

// UpdateListener receives the document count after each commit.
type UpdateListener func(docCount int)

// Writer queues index mutations and commits them to the index.
type Writer struct {
	index     db.Index
	batchSize int
	logger    *zap.Logger

	commitMu sync.Mutex // serializes commits so batches land in queue order
	mu       sync.Mutex
	pending  []db.DocOp
	flushed  atomic.Bool

	listenersMu sync.RWMutex
	listeners   []UpdateListener
}

// NewWriter creates a writer over index.
func NewWriter(index db.Index, batchSize int, logger *zap.Logger) *Writer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{index: index, batchSize: batchSize, logger: logger}
}

// Index queues news for indexing. On update, hidden and deleted items are
// removed from the index instead.
func (w *Writer) Index(ctx context.Context, news []*domain.NewsItem, isUpdate bool) error {
	ops := make([]db.DocOp, 0, len(news))
	for _, n := range news {
		id := docID(n.Ref())
		if !n.State.IsVisible() {
			if isUpdate {
				ops = append(ops, db.DocOp{Kind: db.DocDelete, ID: id})
			}
			continue
		}
		ops = append(ops, db.DocOp{Kind: db.DocIndex, ID: id, Document: toDocument(n)})
	}
	return w.enqueue(ctx, ops)
}

// Remove queues the deletion of refs.
func (w *Writer) Remove(ctx context.Context, refs []domain.EntityRef) error {
	ops := make([]db.DocOp, 0, len(refs))
	for _, ref := range refs {
		ops = append(ops, db.DocOp{Kind: db.DocDelete, ID: docID(ref)})
	}
	return w.enqueue(ctx, ops)
}

func (w *Writer) enqueue(ctx context.Context, ops []db.DocOp) error {
	if len(ops) == 0 {
		return nil
	}
	w.mu.Lock()
	w.pending = append(w.pending, ops...)
	full := len(w.pending) >= w.batchSize
	w.mu.Unlock()

	if full {
		if _, err := w.FlushIfDirty(ctx); err != nil {
			return err
		}
	}
	return nil
}

// FlushIfDirty commits pending mutations and reports whether it committed.
// Failed mutations are requeued ahead of anything queued meanwhile.
func (w *Writer) FlushIfDirty(ctx context.Context) (bool, error) {
	w.commitMu.Lock()
	defer w.commitMu.Unlock()

	w.mu.Lock()
	ops := w.pending
	w.pending = nil
	w.mu.Unlock()

	if len(ops) == 0 {
		return false, nil
	}

	if err := w.index.Batch(ctx, ops); err != nil {
		w.mu.Lock()
		w.pending = append(ops, w.pending...)
		w.mu.Unlock()
		return false, fmt.Errorf("commit %d ops: %w", len(ops), err)
	}

	w.flushed.Store(true)
	w.logger.Debug("Index committed", zap.Int("ops", len(ops)))
	w.notify()
	return true, nil
}

// HasFlushed reports whether anything was committed since the previous call.
func (w *Writer) HasFlushed() bool {
	return w.flushed.Swap(false)
}

// Pending returns the number of queued mutations.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Clear drops queued mutations and deletes every document.
func (w *Writer) Clear(ctx context.Context) error {
	w.commitMu.Lock()
	defer w.commitMu.Unlock()

	w.mu.Lock()
	w.pending = nil
	w.mu.Unlock()

	if err := w.index.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	w.flushed.Store(true)
	w.notify()
	return nil
}

// Optimize merges index segments.
func (w *Writer) Optimize(ctx context.Context) error {
	if err := w.index.Optimize(ctx); err != nil {
		return fmt.Errorf("optimize index: %w", err)
	}
	return nil
}

// OnIndexUpdated registers fn to run after every commit.
func (w *Writer) OnIndexUpdated(fn UpdateListener) {
	w.listenersMu.Lock()
	w.listeners = append(w.listeners, fn)
	w.listenersMu.Unlock()
}

func (w *Writer) notify() {
	w.listenersMu.RLock()
	listeners := w.listeners
	w.listenersMu.RUnlock()
	if len(listeners) == 0 {
		return
	}

	n, err := w.index.DocCount()
	if err != nil {
		w.logger.Warn("Failed to count documents", zap.Error(err))
		return
	}
	for _, fn := range listeners {
		fn(int(n))
	}
}

// Run commits pending mutations every interval until ctx is done, then
// performs a final commit.
func (w *Writer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if _, err := w.FlushIfDirty(context.WithoutCancel(ctx)); err != nil {
				w.logger.Error("Final index commit failed", zap.Error(err))
			}
			return
		case <-ticker.C:
			if _, err := w.FlushIfDirty(ctx); err != nil {
				w.logger.Warn("Index commit failed", zap.Error(err))
			}
		}
	}
}
