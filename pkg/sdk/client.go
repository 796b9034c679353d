package feedsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	bleveidx "github.com/kailas-cloud/feedsearch/internal/db/bleve"
	dbRedis "github.com/kailas-cloud/feedsearch/internal/db/redis"
	"github.com/kailas-cloud/feedsearch/internal/domain"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/condition"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/result"
	"github.com/kailas-cloud/feedsearch/internal/repository/entity"
	"github.com/kailas-cloud/feedsearch/internal/repository/newsindex"
	"github.com/kailas-cloud/feedsearch/internal/searcher"
	healthuc "github.com/kailas-cloud/feedsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/feedsearch/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultCommitInterval   = time.Second
	defaultPollInterval     = 100 * time.Millisecond
)

// Internal interfaces, swapped for mocks in tests.
type searchUseCase interface {
	Search(ctx context.Context, conds []condition.Condition, matchAll bool) ([]result.Hit, error)
	SearchByExactLink(ctx context.Context, link string, copiesOnly bool) ([]domain.EntityRef, error)
	SearchByExternalGUID(ctx context.Context, guid string, copiesOnly bool) ([]domain.EntityRef, error)
	ReindexAll(ctx context.Context, progress searchuc.ProgressSink) error
	ClearIndex(ctx context.Context) error
	Optimize(ctx context.Context) error
}

type entityStore interface {
	PutNews(ctx context.Context, news ...*domain.NewsItem) error
	DeleteNews(ctx context.Context, id int64) error
	PutFolder(ctx context.Context, f *domain.Folder) error
	PutBookmark(ctx context.Context, b *domain.Bookmark) error
	PutBin(ctx context.Context, b *domain.Bin) error
}

type newsIndexer interface {
	Index(ctx context.Context, news []*domain.NewsItem, isUpdate bool) error
	Remove(ctx context.Context, refs []domain.EntityRef) error
	FlushIfDirty(ctx context.Context) (bool, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the feedsearch SDK entry point.
type Client struct {
	entities  entityStore
	indexer   newsIndexer
	searchSvc searchUseCase
	healthSvc healthUseCase
	obs       *observer
	closeFn   func(ctx context.Context) error
}

// New creates a Client, connects to Redis and opens the index.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	cfg.applyDefaults()

	if len(cfg.addrs) == 0 {
		return nil, errors.New("feedsearch: redis address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("feedsearch: create redis store: %w", err)
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("feedsearch: database not ready: %w", err)
	}

	index, err := bleveidx.Open(bleveidx.Config{Path: cfg.indexPath}, newsindex.Definition())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("feedsearch: open index: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		_ = index.Close()
		store.Close()
		return nil, err
	}

	c, err := wireClient(store, index, cfg, obs)
	if err != nil {
		_ = index.Close()
		store.Close()
		return nil, err
	}
	return c, nil
}

func (c *clientConfig) applyDefaults() {
	if c.commitInterval <= 0 {
		c.commitInterval = defaultCommitInterval
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
}

func wireClient(store *dbRedis.Store, index *bleveidx.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	entities := entity.New(store, cfg.locationCacheSize, cfg.locationCacheTTL)
	writer := newsindex.NewWriter(index, cfg.batchSize, cfg.logger)

	analyzer, err := bleveidx.NewTextAnalyzer()
	if err != nil {
		return nil, fmt.Errorf("feedsearch: create analyzer: %w", err)
	}

	views, err := searcher.New(index, writer, cfg.pollInterval, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("feedsearch: open index views: %w", err)
	}
	compiler := searchuc.NewCompiler(analyzer, entities, cfg.logger)
	searchSvc := searchuc.New(views, writer, entities, compiler, searchuc.Config{
		MaxClauseCount:   cfg.maxClauseCount,
		ResultLimit:      cfg.resultLimit,
		ReindexBatchSize: cfg.reindexBatchSize,
	}, cfg.logger)

	runCtx, stop := context.WithCancel(context.Background())
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writer.Run(runCtx, cfg.commitInterval)
	}()

	closeFn := func(ctx context.Context) error {
		stop()
		<-writerDone
		errs := []error{views.Shutdown(ctx, false), index.Close()}
		store.Close()
		return errors.Join(errs...)
	}

	return &Client{
		entities:  entities,
		indexer:   writer,
		searchSvc: searchSvc,
		healthSvc: healthuc.New(store, index),
		obs:       obs,
		closeFn:   closeFn,
	}, nil
}

// Close commits pending writes, waits for running searches until ctx ends
// and releases all resources.
func (c *Client) Close(ctx context.Context) error {
	if c.closeFn == nil {
		return nil
	}
	err := c.closeFn(ctx)
	c.closeFn = nil
	if err != nil {
		return fmt.Errorf("feedsearch: close: %w", err)
	}
	return nil
}
