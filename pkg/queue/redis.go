package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/brrock/gamex/pkg/logger"
	"github.com/brrock/gamex/pkg/metrics"
)

// RedisQueue implements Queue on a Redis list. Writers LPUSH to the head,
// the processor RPOPs from the tail, so pop order follows push order.
type RedisQueue struct {
	client *redis.Client
	key    string
	logger *logger.Logger
}

// NewRedisQueue creates a RedisQueue on the given list key
func NewRedisQueue(client *redis.Client, key string, l *logger.Logger) *RedisQueue {
	return &RedisQueue{
		client: client,
		key:    key,
		logger: l,
	}
}

// Push appends the serialized item to the queue
func (q *RedisQueue) Push(ctx context.Context, item Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to serialize queue item: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push queue item: %w", err)
	}
	return nil
}

// PopBatch removes up to max items from the tail of the list. Malformed
// entries are logged, counted and skipped so a single corrupt entry never
// blocks the batch.
func (q *RedisQueue) PopBatch(ctx context.Context, max int) ([]Item, error) {
	items := make([]Item, 0, max)

	for len(items) < max {
		raw, err := q.client.RPop(ctx, q.key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				break
			}
			return items, fmt.Errorf("failed to pop queue item: %w", err)
		}

		item, err := decodeItem(raw)
		if err != nil {
			metrics.ItemsDroppedTotal.Inc()
			q.logger.Warn("dropping malformed queue entry",
				zap.Error(err),
				zap.ByteString("entry", raw))
			continue
		}

		items = append(items, item)
	}

	return items, nil
}

// Return re-inserts popped items at the head of the list after a failed
// commit. Pushing in slice order keeps their relative pop order; they
// compete with newly pushed items for position.
func (q *RedisQueue) Return(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	pipe := q.client.TxPipeline()
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to serialize queue item for return: %w", err)
		}
		pipe.LPush(ctx, q.key, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to return items to queue: %w", err)
	}
	return nil
}

// Len returns the number of pending items
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue length: %w", err)
	}
	return n, nil
}

// Close releases the Redis connection
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
