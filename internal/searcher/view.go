package searcher

import (
	"sync"
	"sync/atomic"

	"github.com/kailas-cloud/feedsearch/internal/db"
)

// View is a published, versioned snapshot of the index with a lease count.
type View struct {
	snapshot   db.Snapshot
	generation uint64
	leases     atomic.Int64

	disposeOnce sync.Once
	disposeErr  error
}

func newView(snap db.Snapshot, generation uint64) *View {
	return &View{snapshot: snap, generation: generation}
}

// Generation returns the view's position in publication order.
func (v *View) Generation() uint64 { return v.generation }

// Leases returns the number of outstanding leases.
func (v *View) Leases() int64 { return v.leases.Load() }

// dispose closes the snapshot exactly once, however many callers race here.
func (v *View) dispose() error {
	v.disposeOnce.Do(func() {
		v.disposeErr = v.snapshot.Close()
	})
	return v.disposeErr
}

// Lease is a caller's claim on a view. Release it when the search is done.
type Lease struct {
	m        *Manager
	view     *View
	released atomic.Bool
}

// Snapshot returns the leased snapshot.
func (l *Lease) Snapshot() db.Snapshot { return l.view.snapshot }

// Generation returns the generation of the leased view.
func (l *Lease) Generation() uint64 { return l.view.generation }

// Release gives the view back. Calls after the first are no-ops.
func (l *Lease) Release() {
	if !l.released.CompareAndSwap(false, true) {
		return
	}
	l.m.release(l.view)
}
