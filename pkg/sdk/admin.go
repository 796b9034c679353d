package feedsearch

import (
	"context"
	"time"
)

// ProgressFunc receives the number of items indexed so far and the total.
type ProgressFunc func(done, total int)

// Reindex rebuilds the index from the entity store. Canceling ctx stops the
// rebuild; items indexed so far stay searchable and Reindex returns nil.
func (c *Client) Reindex(ctx context.Context, progress ProgressFunc) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("reindex", start, err) }()

	return c.searchSvc.ReindexAll(ctx, &progressSink{fn: progress})
}

// ClearIndex deletes every indexed document. News stay in the entity store.
func (c *Client) ClearIndex(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("clear", start, err) }()

	return c.searchSvc.ClearIndex(ctx)
}

// Optimize merges index segments.
func (c *Client) Optimize(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("optimize", start, err) }()

	return c.searchSvc.Optimize(ctx)
}

// progressSink adapts a ProgressFunc. ReindexAll drives it from a single
// goroutine.
type progressSink struct {
	fn    ProgressFunc
	total int
	done  int
}

func (p *progressSink) Begin(total int) { p.total = total }

func (p *progressSink) Worked(n int) {
	p.done += n
	if p.fn != nil {
		p.fn(p.done, p.total)
	}
}

func (p *progressSink) IsCanceled() bool { return false }

func (p *progressSink) Done() {}
