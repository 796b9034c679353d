package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kailas-cloud/feedsearch/internal/db"
	"github.com/kailas-cloud/feedsearch/internal/domain"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/condition"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/encoding"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/field"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/query"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/result"
	"github.com/kailas-cloud/feedsearch/internal/metrics"
)

var tracer = otel.Tracer("feedsearch.search")

// Operation names used for spans and metrics.
const (
	opSearch   = "search"
	opLink     = "search_by_link"
	opGUID     = "search_by_guid"
	opReindex  = "reindex"
	opClear    = "clear"
	opOptimize = "optimize"
)

// Defaults applied by New.
const (
	DefaultMaxClauseCount   = 1024
	DefaultReindexBatchSize = 200
)

// Config tunes the search service.
type Config struct {
	// MaxClauseCount is the initial clause ceiling; it is lifted after the
	// first clause explosion.
	MaxClauseCount int
	// ResultLimit caps ranked results; zero returns every match.
	ResultLimit int
	// ReindexBatchSize is the number of news items loaded per batch on reindex.
	ReindexBatchSize int
}

// Service is the public search and index admin surface.
type Service struct {
	compiler  *Compiler
	collector *Collector
	views     ViewManager
	writer    IndexWriter
	entities  EntitySource
	logger    *zap.Logger
	batchSize int
	now       func() time.Time

	maxClauses atomic.Int64
	adminMu    sync.Mutex
}

// New creates a search service.
func New(
	views ViewManager, writer IndexWriter, entities EntitySource,
	compiler *Compiler, cfg Config, logger *zap.Logger,
) *Service {
	if cfg.MaxClauseCount <= 0 {
		cfg.MaxClauseCount = DefaultMaxClauseCount
	}
	if cfg.ReindexBatchSize <= 0 {
		cfg.ReindexBatchSize = DefaultReindexBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		compiler:  compiler,
		collector: NewCollector(cfg.ResultLimit),
		views:     views,
		writer:    writer,
		entities:  entities,
		logger:    logger,
		batchSize: cfg.ReindexBatchSize,
		now:       time.Now,
	}
	s.maxClauses.Store(int64(cfg.MaxClauseCount))
	return s
}

// MaxClauseCount returns the current clause ceiling; zero is unbounded.
func (s *Service) MaxClauseCount() int { return int(s.maxClauses.Load()) }

// SearchByExactLink returns the news whose link equals link. With copiesOnly
// only copies kept in news bins are returned.
func (s *Service) SearchByExactLink(ctx context.Context, link string, copiesOnly bool) ([]domain.EntityRef, error) {
	return s.searchExact(ctx, opLink, field.NewsLink.IndexName(), link, copiesOnly)
}

// SearchByExternalGUID returns the news whose feed GUID equals guid. With
// copiesOnly only copies kept in news bins are returned.
func (s *Service) SearchByExternalGUID(ctx context.Context, guid string, copiesOnly bool) ([]domain.EntityRef, error) {
	return s.searchExact(ctx, opGUID, field.GUID.IndexName(), guid, copiesOnly)
}

func (s *Service) searchExact(
	ctx context.Context, op, name, value string, copiesOnly bool,
) (refs []domain.EntityRef, err error) {
	ctx, span := tracer.Start(ctx, "search."+op, trace.WithAttributes(
		attribute.Bool("copies_only", copiesOnly),
	))
	defer span.End()
	start := time.Now()
	defer func() { s.observe(span, op, start, len(refs), err) }()

	if value == "" {
		return nil, nil
	}
	q := query.NewBoolean().Add(query.Term{Field: name, Term: value}, query.Must)
	if copiesOnly {
		q.Add(query.Wildcard{Field: field.NameLocation, Pattern: encoding.PrefixBin + "*"}, query.Must)
	}

	err = s.withLease(ctx, func(snap db.Snapshot) error {
		var err error
		refs, err = s.collector.Simple(ctx, snap, q, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// Search returns the news matching all (matchAll) or any of conds. A clause
// explosion lifts the clause ceiling for good and retries once; a second one
// fails with domain.ErrTooManyClauses.
func (s *Service) Search(
	ctx context.Context, conds []condition.Condition, matchAll bool,
) (hits []result.Hit, err error) {
	ctx, span := tracer.Start(ctx, "search.Search", trace.WithAttributes(
		attribute.Int("conditions", len(conds)),
		attribute.Bool("match_all", matchAll),
	))
	defer span.End()
	start := time.Now()
	defer func() { s.observe(span, opSearch, start, len(hits), err) }()

	hits, err = s.compileAndCollect(ctx, conds, matchAll)
	if !errors.Is(err, db.ErrTooManyClauses) {
		return hits, err
	}

	s.liftClauseCeiling(err)
	span.AddEvent("clause ceiling lifted")
	hits, err = s.compileAndCollect(ctx, conds, matchAll)
	if errors.Is(err, db.ErrTooManyClauses) {
		s.logger.Warn("Query still too complex after lifting clause ceiling",
			zap.Int("conditions", len(conds)), zap.Error(err))
		return nil, domain.ErrTooManyClauses
	}
	return hits, err
}

func (s *Service) compileAndCollect(
	ctx context.Context, conds []condition.Condition, matchAll bool,
) ([]result.Hit, error) {
	q, err := s.compiler.Compile(ctx, conds, matchAll)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCondition) {
			return nil, err
		}
		return nil, domain.NewSearchError("compile", err)
	}

	var hits []result.Hit
	err = s.withLease(ctx, func(snap db.Snapshot) error {
		var err error
		hits, err = s.collector.Ranked(ctx, snap, q, s.MaxClauseCount())
		return err
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// liftClauseCeiling removes the clause ceiling for the rest of the process.
func (s *Service) liftClauseCeiling(cause error) {
	prev := s.maxClauses.Swap(0)
	if prev == 0 {
		return
	}
	metrics.ClauseCeilingRaisesTotal.Inc()
	s.logger.Warn("Clause ceiling lifted", zap.Int64("previous", prev), zap.Error(cause))
}

// withLease runs fn against a leased view and releases it afterwards.
func (s *Service) withLease(ctx context.Context, fn func(db.Snapshot) error) error {
	l, err := s.views.Lease(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrIndexClosed) {
			return err
		}
		return domain.NewSearchError("lease", err)
	}
	defer l.Release()
	return fn(l.Snapshot())
}

func (s *Service) observe(span trace.Span, op string, start time.Time, n int, err error) {
	metrics.SearchDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.SearchRequestsTotal.WithLabelValues(op, metrics.Status(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	metrics.SearchHits.WithLabelValues(op).Observe(float64(n))
	span.SetAttributes(attribute.Int("hits", n))
	span.SetStatus(codes.Ok, "")
}
