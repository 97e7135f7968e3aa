package regen

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/itemsearch/internal/domain/batch"
	"github.com/kailas-cloud/itemsearch/internal/domain/item"
	"github.com/kailas-cloud/itemsearch/internal/logger"
	"github.com/kailas-cloud/itemsearch/internal/metrics"
)

// Defaults sized for the embedding provider's rate limits.
const (
	DefaultBatchSize   = 5
	DefaultPacingDelay = time.Second
)

// Metric label values.
const (
	outcomeCompleted = "completed"
	outcomeEmpty     = "empty"
	outcomeFailed    = "failed"
	itemStatusOK     = "ok"
	itemStatusError  = "error"
)

// Service re-embeds the whole catalog in paced, concurrent batches.
type Service struct {
	catalog   Catalog
	embedder  ItemEmbedder
	batchSize int
	delay     time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	newRunID  func() string
}

// New creates a regeneration service with default batch size and pacing.
func New(catalog Catalog, embedder ItemEmbedder) *Service {
	return &Service{
		catalog:   catalog,
		embedder:  embedder,
		batchSize: DefaultBatchSize,
		delay:     DefaultPacingDelay,
		sleep:     sleepContext,
		newRunID:  uuid.NewString,
	}
}

// WithBatchSize configures how many items are embedded concurrently.
func (s *Service) WithBatchSize(size int) *Service {
	if size > 0 {
		s.batchSize = size
	}
	return s
}

// WithPacingDelay configures the wait between consecutive batches. Zero disables pacing.
func (s *Service) WithPacingDelay(d time.Duration) *Service {
	if d >= 0 {
		s.delay = d
	}
	return s
}

// Run regenerates embeddings for every eligible item.
//
// Per-item failures never abort the run; each item ends up either in
// Report.Succeeded or in Report.Errors. Only a failure to fetch the catalog
// is returned as an error. If ctx is cancelled during the pacing wait, the
// items of the remaining batches are reported as failed with the context error.
func (s *Service) Run(ctx context.Context) (batch.Report, error) {
	runID := s.newRunID()
	ctx = logger.WithFields(ctx, zap.String("run_id", runID))
	log := logger.FromContext(ctx)
	start := time.Now()

	items, err := s.catalog.ListEligible(ctx)
	if err != nil {
		metrics.RegenRunsTotal.WithLabelValues(outcomeFailed).Inc()
		log.Error("Embedding regeneration aborted: item fetch failed", zap.Error(err))
		return batch.Report{RunID: runID}, fmt.Errorf("fetch items: %w", err)
	}

	if len(items) == 0 {
		metrics.RegenRunsTotal.WithLabelValues(outcomeEmpty).Inc()
		log.Info(batch.MessageEmpty)
		return batch.NewReport(runID, nil), nil
	}

	log.Info("Embedding regeneration started",
		zap.Int("total_items", len(items)),
		zap.Int("batch_size", s.batchSize),
		zap.Duration("pacing_delay", s.delay),
	)

	results := make([]batch.Result, len(items))
	for lo := 0; lo < len(items); lo += s.batchSize {
		hi := min(lo+s.batchSize, len(items))

		if lo > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				log.Warn("Embedding regeneration interrupted", zap.Int("remaining", len(items)-lo), zap.Error(err))
				for i := lo; i < len(items); i++ {
					results[i] = batch.NewError(items[i].ID(), err)
				}
				break
			}
		}

		s.runBatch(ctx, items[lo:hi], results[lo:hi])
		log.Debug("Batch completed", zap.Int("batch", lo/s.batchSize+1), zap.Int("size", hi-lo))
	}

	report := batch.NewReport(runID, results)

	metrics.RegenItemsTotal.WithLabelValues(itemStatusOK).Add(float64(report.Processed()))
	metrics.RegenItemsTotal.WithLabelValues(itemStatusError).Add(float64(report.Failed()))
	metrics.RegenRunsTotal.WithLabelValues(outcomeCompleted).Inc()
	metrics.RegenRunDuration.Observe(time.Since(start).Seconds())

	log.Info(report.Message(),
		zap.Int("total_items", report.Total),
		zap.Int("processed", report.Processed()),
		zap.Int("failed", report.Failed()),
		zap.Duration("duration", time.Since(start)),
	)

	return report, nil
}

// runBatch embeds all items of one batch concurrently and waits for every one of them.
// Goroutines never return an error to the group so one failure cannot cancel siblings.
func (s *Service) runBatch(ctx context.Context, items []item.Item, out []batch.Result) {
	var g errgroup.Group
	g.SetLimit(len(items))

	for i := range items {
		it := &items[i]
		g.Go(func() error {
			if err := s.embedder.EmbedItem(ctx, it); err != nil {
				logger.FromContext(ctx).Warn("Item embedding failed", zap.String("item_id", it.ID()), zap.Error(err))
				out[i] = batch.NewError(it.ID(), err)
				return nil
			}
			out[i] = batch.NewOK(it.ID())
			return nil
		})
	}

	_ = g.Wait()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
