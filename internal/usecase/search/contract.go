package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/feedsearch/internal/domain"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/condition"
	"github.com/kailas-cloud/feedsearch/internal/repository/newsindex"
	"github.com/kailas-cloud/feedsearch/internal/searcher"
)

// ViewManager leases index views and replaces them wholesale.
type ViewManager interface {
	Lease(ctx context.Context) (*searcher.Lease, error)
	Replace(ctx context.Context) error
}

// IndexWriter is the single writer of the news index.
type IndexWriter interface {
	Index(ctx context.Context, news []*domain.NewsItem, isUpdate bool) error
	FlushIfDirty(ctx context.Context) (bool, error)
	Clear(ctx context.Context) error
	Optimize(ctx context.Context) error
	OnIndexUpdated(fn newsindex.UpdateListener)
}

// LocationResolver expands a location into concrete container terms.
type LocationResolver interface {
	ResolveLocation(ctx context.Context, loc condition.Location) ([]string, error)
}

// Analyzer splits text into index terms the way text fields are indexed.
type Analyzer interface {
	Tokens(text string) []string
}

// EntitySource streams the persisted news for a full reindex.
type EntitySource interface {
	StreamNews(ctx context.Context, batchSize int, fn func([]*domain.NewsItem) error) error
	CountNews(ctx context.Context) (int, error)
	RecordReindex(ctx context.Context, at time.Time) error
}

// ProgressSink receives reindex progress and may request cancellation.
type ProgressSink interface {
	Begin(total int)
	Worked(n int)
	IsCanceled() bool
	Done()
}
