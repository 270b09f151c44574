package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/brrock/gamex/pkg/logger"
	"github.com/brrock/gamex/pkg/queue"
	"github.com/brrock/gamex/pkg/retry"
	"github.com/brrock/gamex/pkg/store"
)

// Mocks
type MockQueue struct{ mock.Mock }

func (m *MockQueue) Push(ctx context.Context, item queue.Item) error {
	return m.Called(ctx, item).Error(0)
}
func (m *MockQueue) PopBatch(ctx context.Context, max int) ([]queue.Item, error) {
	args := m.Called(ctx, max)
	return args.Get(0).([]queue.Item), args.Error(1)
}
func (m *MockQueue) Return(ctx context.Context, items []queue.Item) error {
	return m.Called(ctx, items).Error(0)
}
func (m *MockQueue) Len(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockQueue) Close() error { return m.Called().Error(0) }

type MockStore struct{ mock.Mock }

func (m *MockStore) UpsertBatch(ctx context.Context, records []store.PlayerRecord) error {
	return m.Called(ctx, records).Error(0)
}
func (m *MockStore) GetPlayerData(ctx context.Context, userID, game string) (*store.PlayerRecord, error) {
	args := m.Called(ctx, userID, game)
	rec, _ := args.Get(0).(*store.PlayerRecord)
	return rec, args.Error(1)
}
func (m *MockStore) ListByGame(ctx context.Context, game string) ([]store.PlayerRecord, error) {
	args := m.Called(ctx, game)
	return args.Get(0).([]store.PlayerRecord), args.Error(1)
}
func (m *MockStore) GetGame(ctx context.Context, id string) (*store.Game, error) {
	args := m.Called(ctx, id)
	g, _ := args.Get(0).(*store.Game)
	return g, args.Error(1)
}
func (m *MockStore) CreateGame(ctx context.Context, game store.Game) error {
	return m.Called(ctx, game).Error(0)
}
func (m *MockStore) Ping(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockStore) Close() error                   { return m.Called().Error(0) }

func newTestService(q queue.Queue, s store.Store) *Service {
	l, _ := logger.New(logger.Config{Level: "error", ServiceName: "test"})
	svc := NewService(l, q, s, Config{BatchSize: 100, Interval: time.Second})
	svc.retryOpts = retry.RetryOptions{MaxAttempts: 1, InitialInterval: time.Microsecond, Multiplier: 1.0}
	return svc
}

func item(userID string, ts int64) queue.Item {
	return queue.Item{
		UserID:         userID,
		Game:           "g1",
		Data:           json.RawMessage(`{"v":1}`),
		TempID:         userID + "-tmp",
		QueueTimestamp: ts,
	}
}

func TestEmptyQueueIsNoop(t *testing.T) {
	mq := new(MockQueue)
	ms := new(MockStore)
	mq.On("PopBatch", mock.Anything, 100).Return([]queue.Item{}, nil)

	svc := newTestService(mq, ms)
	svc.runCycle(context.Background())

	ms.AssertNotCalled(t, "UpsertBatch", mock.Anything, mock.Anything)
}

func TestRecordsCommittedInQueueTimestampOrder(t *testing.T) {
	mq := new(MockQueue)
	ms := new(MockStore)

	// Popped out of order
	mq.On("PopBatch", mock.Anything, 100).Return([]queue.Item{
		item("u3", 300), item("u1", 100), item("u2", 200),
	}, nil)

	var got []store.PlayerRecord
	ms.On("UpsertBatch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			got = args.Get(1).([]store.PlayerRecord)
		}).Return(nil)

	svc := newTestService(mq, ms)
	svc.runCycle(context.Background())

	assert.Equal(t, []string{"u1", "u2", "u3"}, []string{got[0].UserID, got[1].UserID, got[2].UserID})
}

func TestFailedCommitReturnsSameBatch(t *testing.T) {
	mq := new(MockQueue)
	ms := new(MockStore)

	popped := []queue.Item{item("u1", 100), item("u2", 200)}
	mq.On("PopBatch", mock.Anything, 100).Return(popped, nil)
	ms.On("UpsertBatch", mock.Anything, mock.Anything).Return(errors.New("commit failed"))

	var returned []queue.Item
	mq.On("Return", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			returned = args.Get(1).([]queue.Item)
		}).Return(nil)

	svc := newTestService(mq, ms)
	svc.runCycle(context.Background())

	// The originally popped batch comes back, not a fresh drain
	mq.AssertNumberOfCalls(t, "PopBatch", 1)
	assert.Len(t, returned, 2)
	assert.Equal(t, "u1-tmp", returned[0].TempID)
	assert.Equal(t, "u2-tmp", returned[1].TempID)
}

func TestDrainErrorRequeuesPartialBatch(t *testing.T) {
	mq := new(MockQueue)
	ms := new(MockStore)

	partial := []queue.Item{item("u1", 100)}
	mq.On("PopBatch", mock.Anything, 100).Return(partial, errors.New("connection reset"))
	mq.On("Return", mock.Anything, partial).Return(nil)

	svc := newTestService(mq, ms)
	svc.runCycle(context.Background())

	ms.AssertNotCalled(t, "UpsertBatch", mock.Anything, mock.Anything)
	mq.AssertCalled(t, "Return", mock.Anything, partial)
}

func TestCycleFailureDoesNotStopLoop(t *testing.T) {
	mq := new(MockQueue)
	ms := new(MockStore)

	mq.On("PopBatch", mock.Anything, 100).Return([]queue.Item{item("u1", 100)}, nil)
	ms.On("UpsertBatch", mock.Anything, mock.Anything).Return(errors.New("commit failed"))
	mq.On("Return", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	svc := newTestService(mq, ms)
	// Both the commit and the requeue fail; the cycle still ends cleanly
	assert.NotPanics(t, func() {
		svc.runCycle(context.Background())
		svc.runCycle(context.Background())
	})
	mq.AssertNumberOfCalls(t, "PopBatch", 2)
}

func TestStartStopsOnCancel(t *testing.T) {
	mq := new(MockQueue)
	ms := new(MockStore)
	mq.On("PopBatch", mock.Anything, mock.Anything).Return([]queue.Item{}, nil)

	l, _ := logger.New(logger.Config{Level: "error", ServiceName: "test"})
	svc := NewService(l, mq, ms, Config{BatchSize: 10, Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("processor did not stop on cancellation")
	}
}

func TestSortProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("sorted batch is ascending by queueTimestamp", prop.ForAll(
		func(stamps []int64) bool {
			items := make([]queue.Item, len(stamps))
			for i, ts := range stamps {
				items[i] = item("u", ts)
			}
			sortByQueueTimestamp(items)
			for i := 1; i < len(items); i++ {
				if items[i-1].QueueTimestamp > items[i].QueueTimestamp {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Int64Range(0, 1_000_000)),
	))

	properties.Property("equal stamps keep pop order", prop.ForAll(
		func(n int) bool {
			if n < 2 || n > 50 {
				return true
			}
			items := make([]queue.Item, n)
			for i := range items {
				items[i] = queue.Item{UserID: "u", TempID: string(rune('a' + i%26)), QueueTimestamp: 42}
				items[i].TempID = items[i].TempID + string(rune('0'+i/26))
			}
			before := make([]string, n)
			for i, it := range items {
				before[i] = it.TempID
			}

			sortByQueueTimestamp(items)

			for i, it := range items {
				if it.TempID != before[i] {
					return false
				}
			}
			return true
		},
		gen.IntRange(2, 50),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
