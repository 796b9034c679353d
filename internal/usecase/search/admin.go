package search

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/feedsearch/internal/domain"
	"github.com/kailas-cloud/feedsearch/internal/metrics"
)

var errReindexCanceled = errors.New("reindex canceled")

// ReindexAll clears the index and queues every persisted news item for
// indexing, then commits so the next search sees the result. Cancellation
// through ctx or progress is checked before each item; a canceled run keeps
// what was indexed so far and returns nil.
func (s *Service) ReindexAll(ctx context.Context, progress ProgressSink) (err error) {
	ctx, span := tracer.Start(ctx, "search.ReindexAll")
	defer span.End()
	defer func() { s.observeAdmin(span, opReindex, err) }()

	if progress == nil {
		progress = nopProgress{}
	}

	s.adminMu.Lock()
	defer s.adminMu.Unlock()

	if err := s.clear(ctx); err != nil {
		return err
	}

	total, err := s.entities.CountNews(ctx)
	if err != nil {
		return domain.NewSearchError(opReindex, fmt.Errorf("count news: %w", err))
	}
	progress.Begin(total)
	defer progress.Done()

	indexed, canceled, err := s.reindex(ctx, progress)
	metrics.ReindexedDocumentsTotal.Add(float64(indexed))
	span.SetAttributes(attribute.Int("indexed", indexed), attribute.Bool("canceled", canceled))
	if err != nil {
		return domain.NewSearchError(opReindex, err)
	}

	if _, err := s.writer.FlushIfDirty(context.WithoutCancel(ctx)); err != nil {
		return domain.NewSearchError(opReindex, fmt.Errorf("final commit: %w", err))
	}

	if canceled {
		s.logger.Info("Reindex canceled", zap.Int("indexed", indexed), zap.Int("total", total))
		return nil
	}
	if err := s.entities.RecordReindex(ctx, s.now()); err != nil {
		s.logger.Warn("Failed to record reindex", zap.Error(err))
	}
	s.logger.Info("Reindex completed", zap.Int("indexed", indexed))
	return nil
}

// reindex streams news from the entity store into the writer: one goroutine
// loads batches, another queues them item by item.
func (s *Service) reindex(ctx context.Context, progress ProgressSink) (indexed int, canceled bool, err error) {
	g, gctx := errgroup.WithContext(ctx)
	batches := make(chan []*domain.NewsItem, 2)

	g.Go(func() error {
		defer close(batches)
		return s.entities.StreamNews(gctx, s.batchSize, func(news []*domain.NewsItem) error {
			select {
			case batches <- news:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	g.Go(func() error {
		for batch := range batches {
			for _, n := range batch {
				if ctx.Err() != nil || progress.IsCanceled() {
					return errReindexCanceled
				}
				if err := s.writer.Index(gctx, []*domain.NewsItem{n}, false); err != nil {
					return fmt.Errorf("index news %d: %w", n.ID, err)
				}
				indexed++
				progress.Worked(1)
			}
		}
		return nil
	})

	err = g.Wait()
	switch {
	case err == nil:
		return indexed, false, nil
	case errors.Is(err, errReindexCanceled), ctx.Err() != nil:
		return indexed, true, nil
	default:
		return indexed, false, err
	}
}

// ClearIndex deletes every document and publishes an empty view. It returns
// once searches still running on the old view have finished.
func (s *Service) ClearIndex(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "search.ClearIndex")
	defer span.End()
	defer func() { s.observeAdmin(span, opClear, err) }()

	s.adminMu.Lock()
	defer s.adminMu.Unlock()
	if err := s.clear(ctx); err != nil {
		return err
	}
	s.logger.Info("Index cleared")
	return nil
}

func (s *Service) clear(ctx context.Context) error {
	if err := s.writer.Clear(ctx); err != nil {
		return domain.NewSearchError(opClear, err)
	}
	if err := s.views.Replace(ctx); err != nil {
		return domain.NewSearchError(opClear, err)
	}
	return nil
}

// Optimize merges index segments. Leased views stay valid.
func (s *Service) Optimize(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "search.Optimize")
	defer span.End()
	defer func() { s.observeAdmin(span, opOptimize, err) }()

	if err := s.writer.Optimize(ctx); err != nil {
		return domain.NewSearchError(opOptimize, err)
	}
	s.logger.Info("Index optimized")
	return nil
}

// OnIndexUpdated registers fn to run with the document count after each commit.
func (s *Service) OnIndexUpdated(fn func(docCount int)) {
	s.writer.OnIndexUpdated(fn)
}

func (s *Service) observeAdmin(span trace.Span, op string, err error) {
	metrics.AdminOperationsTotal.WithLabelValues(op, metrics.Status(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

type nopProgress struct{}

func (nopProgress) Begin(int)        {}
func (nopProgress) Worked(int)       {}
func (nopProgress) IsCanceled() bool { return false }
func (nopProgress) Done()            {}
