package processor

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/brrock/gamex/pkg/logger"
	"github.com/brrock/gamex/pkg/metrics"
	"github.com/brrock/gamex/pkg/queue"
	"github.com/brrock/gamex/pkg/retry"
	"github.com/brrock/gamex/pkg/store"
)

// Service drains the ingestion queue on a fixed interval and commits each
// batch to the store in a single transaction. A single goroutine runs the
// loop, so cycles never overlap: the next tick is serviced only after the
// current cycle returns.
type Service struct {
	logger    *logger.Logger
	queue     queue.Queue
	store     store.Store
	batchSize int
	interval  time.Duration
	retryOpts retry.RetryOptions
}

// Config holds processor settings
type Config struct {
	BatchSize int
	Interval  time.Duration
}

// NewService creates a new processor service instance
func NewService(l *logger.Logger, q queue.Queue, s store.Store, cfg Config) *Service {
	retryOpts := retry.DefaultOptions()
	retryOpts.MaxAttempts = 3

	return &Service{
		logger:    l,
		queue:     q,
		store:     s,
		batchSize: cfg.BatchSize,
		interval:  cfg.Interval,
		retryOpts: retryOpts,
	}
}

// Start runs the processing loop until the context is cancelled. Cycle
// failures are contained; only cancellation ends the loop.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("starting batch processor",
		zap.Int("batch_size", s.batchSize),
		zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runCycle(ctx)
		case <-ctx.Done():
			s.logger.Info("stopping batch processor")
			return ctx.Err()
		}
	}
}

// runCycle drains, orders and commits one batch. On commit failure the
// originally popped batch is returned to the queue; nothing is re-drained.
func (s *Service) runCycle(ctx context.Context) {
	items, err := s.queue.PopBatch(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("failed to drain queue", err, zap.Int("partial", len(items)))
		if len(items) > 0 {
			s.requeue(ctx, items)
		}
		return
	}

	if len(items) == 0 {
		return
	}
	metrics.LastBatchSize.Set(float64(len(items)))

	sortByQueueTimestamp(items)

	records := make([]store.PlayerRecord, len(items))
	for i, item := range items {
		records[i] = store.PlayerRecord{
			UserID: item.UserID,
			Game:   item.Game,
			Data:   item.Data,
		}
	}

	start := time.Now()
	if err := s.store.UpsertBatch(ctx, records); err != nil {
		metrics.FlushErrorsTotal.Inc()
		s.logger.Error("failed to commit batch", err, zap.Int("items", len(items)))
		s.requeue(ctx, items)
		return
	}
	metrics.FlushLatency.Observe(time.Since(start).Seconds())
	metrics.BatchesFlushedTotal.Inc()

	s.logger.Info("processed player data batch", zap.Int("items", len(items)))
}

// requeue returns a failed batch to the queue. Losing the batch means data
// loss, so the return itself is retried with backoff.
func (s *Service) requeue(ctx context.Context, items []queue.Item) {
	err := retry.Do(ctx, func() error {
		return s.queue.Return(ctx, items)
	}, s.retryOpts)
	if err != nil {
		s.logger.Error("failed to return batch to queue", err,
			zap.Int("items", len(items)))
		return
	}

	metrics.ItemsRequeuedTotal.Add(float64(len(items)))
	s.logger.Warn("returned failed batch to queue", zap.Int("items", len(items)))
}

// sortByQueueTimestamp orders items ascending by their enqueue ordinal.
// The sort is stable; ties keep pop order.
func sortByQueueTimestamp(items []queue.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].QueueTimestamp < items[j].QueueTimestamp
	})
}
