package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Item is a pending player data write awaiting persistence
type Item struct {
	UserID         string          `json:"userId"`
	Game           string          `json:"game"`
	Data           json.RawMessage `json:"data"`
	Signature      string          `json:"signature"`
	Timestamp      string          `json:"timestamp"`
	QueueTimestamp int64           `json:"queueTimestamp"`
	TempID         string          `json:"tempId"`
}

// Queue defines the interface for the durable ingestion queue
type Queue interface {
	// Push appends the item to the queue
	Push(ctx context.Context, item Item) error

	// PopBatch atomically removes up to max items in FIFO order. Returns
	// fewer items without waiting when the queue holds less than max.
	PopBatch(ctx context.Context, max int) ([]Item, error)

	// Return re-inserts previously popped items after a failed commit,
	// preserving their order relative to each other
	Return(ctx context.Context, items []Item) error

	// Len returns the current number of pending items
	Len(ctx context.Context) (int64, error)

	// Close releases the underlying connection
	Close() error
}

// Clock issues monotonically increasing millisecond timestamps for queue
// ordering. Wall-clock based; ties within the same millisecond are broken
// by assignment order.
type Clock struct {
	mu   sync.Mutex
	last int64
}

// Now returns the next ordering timestamp
func (c *Clock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixMilli()
	if now <= c.last {
		now = c.last + 1
	}
	c.last = now
	return now
}

// NewItem builds a queue item with an ordering timestamp from clk and a
// fresh tempId receipt
func NewItem(clk *Clock, userID, game string, data json.RawMessage, sig, timestamp string) Item {
	return Item{
		UserID:         userID,
		Game:           game,
		Data:           data,
		Signature:      sig,
		Timestamp:      timestamp,
		QueueTimestamp: clk.Now(),
		TempID:         uuid.NewString(),
	}
}

// decodeItem deserializes a raw queue entry and validates its required
// fields. Entries that fail here are dropped by the caller, never returned
// to processing.
func decodeItem(raw []byte) (Item, error) {
	var item Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return Item{}, fmt.Errorf("failed to unmarshal queue entry: %w", err)
	}
	if item.UserID == "" {
		return Item{}, fmt.Errorf("queue entry missing userId")
	}
	if item.Game == "" {
		return Item{}, fmt.Errorf("queue entry missing game")
	}
	if item.TempID == "" {
		return Item{}, fmt.Errorf("queue entry missing tempId")
	}
	if item.QueueTimestamp == 0 {
		return Item{}, fmt.Errorf("queue entry missing queueTimestamp")
	}
	if len(item.Data) == 0 {
		return Item{}, fmt.Errorf("queue entry missing data")
	}
	return item, nil
}
