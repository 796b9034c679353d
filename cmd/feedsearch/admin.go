package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// reportInterval is the minimum delay between progress log lines.
const reportInterval = 5 * time.Second

func runReindex(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, envName)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	progress := &logProgress{logger: a.logger}
	start := time.Now()
	if err := a.search.ReindexAll(ctx, progress); err != nil {
		return err
	}
	a.logger.Info("Reindex finished",
		zap.Int64("indexed", progress.worked.Load()),
		zap.Int64("total", progress.total.Load()),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

func runOptimize(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), envName)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	return a.search.Optimize(cmd.Context())
}

// logProgress reports reindex progress to the log. Cancellation comes from
// the command context.
type logProgress struct {
	logger     *zap.Logger
	total      atomic.Int64
	worked     atomic.Int64
	lastReport atomic.Int64
}

func (p *logProgress) Begin(total int) {
	p.total.Store(int64(total))
	p.lastReport.Store(time.Now().UnixNano())
	p.logger.Info("Reindex started", zap.Int("total", total))
}

func (p *logProgress) Worked(n int) {
	done := p.worked.Add(int64(n))
	now := time.Now().UnixNano()
	last := p.lastReport.Load()
	if now-last < int64(reportInterval) || !p.lastReport.CompareAndSwap(last, now) {
		return
	}
	p.logger.Info("Reindex progress", zap.Int64("indexed", done), zap.Int64("total", p.total.Load()))
}

func (p *logProgress) IsCanceled() bool { return false }

func (p *logProgress) Done() {}
