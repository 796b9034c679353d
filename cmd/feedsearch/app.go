package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/feedsearch/internal/config"
	bleveidx "github.com/kailas-cloud/feedsearch/internal/db/bleve"
	dbRedis "github.com/kailas-cloud/feedsearch/internal/db/redis"
	logpkg "github.com/kailas-cloud/feedsearch/internal/logger"
	"github.com/kailas-cloud/feedsearch/internal/metrics"
	"github.com/kailas-cloud/feedsearch/internal/repository/entity"
	"github.com/kailas-cloud/feedsearch/internal/repository/newsindex"
	"github.com/kailas-cloud/feedsearch/internal/searcher"
	healthuc "github.com/kailas-cloud/feedsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/feedsearch/internal/usecase/search"
	"github.com/kailas-cloud/feedsearch/internal/version"
)

// app is the composition root shared by every command.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	redis    *dbRedis.Store
	index    *bleveidx.Store
	entities *entity.Repo
	writer   *newsindex.Writer
	views    *searcher.Manager
	search   *searchuc.Service
	health   *healthuc.Service
}

func newApp(ctx context.Context, env string) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	logger.Info("Starting feedsearch",
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("index_path", cfg.Index.Path),
	)

	a := &app{cfg: cfg, logger: logger}

	a.redis, err = dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis store: %w", err)
	}
	if err := a.redis.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		a.redis.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	a.index, err = bleveidx.Open(bleveidx.Config{Path: cfg.Index.Path}, newsindex.Definition())
	if err != nil {
		a.redis.Close()
		return nil, fmt.Errorf("open index: %w", err)
	}

	a.entities = entity.New(a.redis, cfg.Cache.LocationSize, time.Duration(cfg.Cache.LocationTTLSec)*time.Second)
	a.writer = newsindex.NewWriter(a.index, cfg.Index.BatchSize, logger.Named("writer"))

	a.views, err = searcher.New(a.index, a.writer,
		time.Duration(cfg.Index.PollIntervalMs)*time.Millisecond, logger.Named("searcher"))
	if err != nil {
		_ = a.index.Close()
		a.redis.Close()
		return nil, fmt.Errorf("open index views: %w", err)
	}

	analyzer, err := bleveidx.NewTextAnalyzer()
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("create analyzer: %w", err)
	}
	compiler := searchuc.NewCompiler(analyzer, a.entities, logger.Named("compiler"))
	a.search = searchuc.New(a.views, a.writer, a.entities, compiler, searchuc.Config{
		MaxClauseCount:   cfg.Index.MaxClauseCount,
		ResultLimit:      cfg.Index.ResultLimit,
		ReindexBatchSize: cfg.Index.ReindexBatchSize,
	}, logger.Named("search"))
	a.health = healthuc.New(a.redis, a.index)

	if err := a.registerMetrics(); err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	return a, nil
}

func (a *app) registerMetrics() error {
	metrics.RegisterSearchMetrics()
	if n, err := a.index.DocCount(); err == nil {
		metrics.IndexDocuments.Set(float64(n))
	}
	a.search.OnIndexUpdated(func(docCount int) {
		metrics.IndexDocuments.Set(float64(docCount))
	})
	return metrics.RegisterViewMetrics(prometheus.DefaultRegisterer, func() metrics.ViewStats {
		st := a.views.Stats()
		return metrics.ViewStats{Views: st.Views, Generation: st.Generation, Leases: st.Leases}
	})
}

// close commits pending writes, waits for searches to drain and releases
// the stores.
func (a *app) close(ctx context.Context) {
	if _, err := a.writer.FlushIfDirty(context.WithoutCancel(ctx)); err != nil {
		a.logger.Error("Final index commit failed", zap.Error(err))
	}
	if err := a.views.Shutdown(ctx, false); err != nil {
		a.logger.Warn("Index views did not drain", zap.Error(err))
	}
	if err := a.index.Close(); err != nil {
		a.logger.Error("Failed to close index", zap.Error(err))
	}
	a.redis.Close()
	_ = a.logger.Sync()
}
