package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/quizsolve/internal/model"
)

// DefaultConcurrency is the number of pages solved at the same time.
const DefaultConcurrency = 4

// RunFunc performs one complete run over source. It may return a nil report
// when the page could not even be loaded.
type RunFunc func(ctx context.Context, source string) (*model.RunReport, error)

// BatchProcessor solves several quiz pages concurrently.
type BatchProcessor struct {
	run         RunFunc
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent runs.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor calling run once per source.
func NewBatchProcessor(run RunFunc, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		run:         run,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch runs every source and returns one report per source, in
// input order. A failed run does not stop the others; its error is kept in
// its report. The returned error is non-nil only when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sources []string) ([]*model.RunReport, error) {
	start := time.Now()
	reports := make([]*model.RunReport, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, source := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			report, err := bp.run(ctx, source)
			if report == nil {
				report = model.NewRunReport(source)
				report.Fail(err)
				report.Finish()
			}
			reports[i] = report

			if err != nil {
				bp.logger.Warn("run failed", "source", source, "error", err)
			}
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Debug("batch complete", "sources", len(sources), "elapsed", time.Since(start))

	for i, r := range reports {
		if r == nil {
			r = model.NewRunReport(sources[i])
			r.Fail(context.Cause(ctx))
			r.Finish()
			reports[i] = r
		}
	}
	return reports, err
}
