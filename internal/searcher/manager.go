// Package searcher owns the published index view and hands out leases on it.
//
// Readers lease the current view, search it and release it. When the writer
// reports a commit, the next lease reopens the view and publishes the newer
// one; superseded views are closed once their last lease is released.
package searcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/feedsearch/internal/db"
	"github.com/kailas-cloud/feedsearch/internal/domain"
)

// DefaultPollInterval is the drain poll interval used when none is configured.
const DefaultPollInterval = 100 * time.Millisecond

// Flusher is the writer side consumed before every lease.
type Flusher interface {
	// FlushIfDirty commits pending writes, reporting whether anything was committed.
	FlushIfDirty(ctx context.Context) (bool, error)
	// HasFlushed reports whether a commit happened since the previous call.
	HasFlushed() bool
}

// Stats is a point-in-time summary of the manager state.
type Stats struct {
	Views      int
	Generation uint64
	Leases     int64
}

// Manager publishes index views and tracks their leases.
//
// The current pointer and the registry change only under mu. Lease counts are
// atomic; the zero-crossing check that may dispose a view takes mu so a view
// is never closed while it is published.
type Manager struct {
	source       db.Snapshotter
	writer       Flusher
	pollInterval time.Duration
	logger       *zap.Logger

	mu         sync.Mutex
	current    *View
	views      map[*View]struct{}
	generation uint64
	closed     bool
}

// New opens the initial view and returns a running manager.
func New(source db.Snapshotter, writer Flusher, pollInterval time.Duration, logger *zap.Logger) (*Manager, error) {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	snap, err := source.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("open initial view: %w", err)
	}

	m := &Manager{
		source:       source,
		writer:       writer,
		pollInterval: pollInterval,
		logger:       logger,
		views:        make(map[*View]struct{}),
	}
	m.publish(snap)
	return m, nil
}

// Lease returns a claim on the current view, reopening it first when the
// writer committed since the last check.
func (m *Manager) Lease(ctx context.Context) (*Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	observed, closed := m.current, m.closed
	m.mu.Unlock()
	if closed {
		return nil, domain.ErrIndexClosed
	}

	if _, err := m.writer.FlushIfDirty(ctx); err != nil {
		return nil, fmt.Errorf("flush writer: %w", err)
	}
	if m.writer.HasFlushed() {
		return m.reopen(observed)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, domain.ErrIndexClosed
	}
	return m.acquire(m.current), nil
}

// reopen derives a newer view from the published one. When another caller
// already published past observed, the reopen still runs against the newest
// view, which is a no-op if nothing else was committed.
func (m *Manager) reopen(observed *View) (*Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, domain.ErrIndexClosed
	}
	base := m.current
	if base != observed {
		m.logger.Debug("Reopen race lost",
			zap.Uint64("observed", observed.generation),
			zap.Uint64("current", base.generation),
		)
	}

	next, changed, err := m.source.Reopen(base.snapshot)
	if err != nil {
		return nil, fmt.Errorf("reopen view: %w", err)
	}
	if !changed {
		return m.acquire(base), nil
	}

	v := m.publish(next)
	l := m.acquire(v)
	if base.leases.Load() == 0 {
		m.disposeLocked(base)
	}
	return l, nil
}

// Replace publishes a freshly opened view immediately, then waits for the
// previous view to drain and closes it. If ctx ends first the wait is
// abandoned with ErrDrainInterrupted; the last release closes the old view.
func (m *Manager) Replace(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return domain.ErrIndexClosed
	}
	snap, err := m.source.Snapshot()
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("open replacement view: %w", err)
	}
	old := m.current
	v := m.publish(snap)
	m.mu.Unlock()

	m.logger.Debug("View replaced",
		zap.Uint64("old", old.generation),
		zap.Uint64("new", v.generation),
		zap.Int64("old_leases", old.leases.Load()),
	)
	return m.drain(ctx, []*View{old})
}

// Shutdown unpublishes the current view and closes every view. An emergency
// shutdown skips closing entirely. Otherwise idle views are closed right away
// and leased ones are awaited until ctx ends.
func (m *Manager) Shutdown(ctx context.Context, emergency bool) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.current = nil
	pending := make([]*View, 0, len(m.views))
	for v := range m.views {
		pending = append(pending, v)
	}
	m.mu.Unlock()

	if emergency {
		m.logger.Warn("Emergency shutdown, views left open", zap.Int("views", len(pending)))
		return nil
	}
	return m.drain(ctx, pending)
}

// Stats returns the registry size, current generation and outstanding leases.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{Views: len(m.views), Generation: m.generation}
	for v := range m.views {
		s.Leases += v.leases.Load()
	}
	return s
}

// drain polls until every view in pending is unleased and unpublished, then
// closes it.
func (m *Manager) drain(ctx context.Context, pending []*View) error {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	var errs []error
	for {
		m.mu.Lock()
		remaining := pending[:0]
		for _, v := range pending {
			if v.leases.Load() == 0 && v != m.current {
				if err := m.disposeLocked(v); err != nil {
					errs = append(errs, err)
				}
				continue
			}
			remaining = append(remaining, v)
		}
		pending = remaining
		m.mu.Unlock()

		if len(pending) == 0 {
			return errors.Join(errs...)
		}

		select {
		case <-ctx.Done():
			m.logger.Warn("View drain interrupted", zap.Int("pending", len(pending)))
			return errors.Join(append(errs, fmt.Errorf("%w: %w", domain.ErrDrainInterrupted, ctx.Err()))...)
		case <-ticker.C:
		}
	}
}

func (m *Manager) release(v *View) {
	n := v.leases.Add(-1)
	if n < 0 {
		panic("searcher: negative lease count")
	}
	if n > 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if v != m.current && v.leases.Load() == 0 {
		if err := m.disposeLocked(v); err != nil {
			m.logger.Warn("Failed to close view", zap.Uint64("generation", v.generation), zap.Error(err))
		}
	}
}

// publish registers snap as the next generation and makes it current.
// Caller holds mu.
func (m *Manager) publish(snap db.Snapshot) *View {
	m.generation++
	v := newView(snap, m.generation)
	m.views[v] = struct{}{}
	m.current = v
	return v
}

// acquire increments v's lease count. Caller holds mu.
func (m *Manager) acquire(v *View) *Lease {
	v.leases.Add(1)
	return &Lease{m: m, view: v}
}

// disposeLocked closes v and drops it from the registry. Caller holds mu.
func (m *Manager) disposeLocked(v *View) error {
	if _, ok := m.views[v]; !ok {
		return nil
	}
	delete(m.views, v)
	m.logger.Debug("View disposed", zap.Uint64("generation", v.generation))
	return v.dispose()
}
