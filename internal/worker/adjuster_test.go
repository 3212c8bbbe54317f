package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/inventory"
	"github.com/jmehdipour/inventory-sim/internal/kafka"
	"github.com/jmehdipour/inventory-sim/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanSource feeds queued messages, then blocks until ctx is cancelled.
type chanSource struct {
	mu        sync.Mutex
	msgs      chan kafka.Message
	committed []int64
}

func newChanSource(values ...[]byte) *chanSource {
	s := &chanSource{msgs: make(chan kafka.Message, len(values))}
	for i, v := range values {
		s.msgs <- kafka.Message{Offset: int64(i), Value: v}
	}
	return s
}

func (s *chanSource) Fetch(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-s.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (s *chanSource) Commit(_ context.Context, m kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = append(s.committed, m.Offset)
	return nil
}

func (s *chanSource) commits() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.committed...)
}

func adjustment(t *testing.T, itemID string, delta int64) []byte {
	t.Helper()
	b, err := json.Marshal(model.Adjustment{ItemID: itemID, Delta: delta, Reason: "test"})
	require.NoError(t, err)
	return b
}

func runUntilCommitted(t *testing.T, w *AdjustmentWorker, src *chanSource, n int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Eventually(t, func() bool { return len(src.commits()) == n }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestAdjustmentWorker_AppliesAndCommitsAll(t *testing.T) {
	backend := inventory.NewMemoryBackend(5, 1)
	store := inventory.NewStore(backend, inventory.NewPool(2, 0), 0)
	require.NoError(t, store.Init(context.Background()))

	before, err := store.GetByID(context.Background(), "ITEM-1")
	require.NoError(t, err)

	src := newChanSource(
		adjustment(t, "ITEM-1", 10),
		[]byte(`{not json`),
		adjustment(t, "MISSING", 1),
		adjustment(t, "ITEM-1", -(before.Quantity+1000)),
		adjustment(t, "ITEM-1", -3),
		[]byte(`{"item_id":"ITEM-2","delta":0}`),
	)
	w := NewAdjustmentWorker(src, store)
	runUntilCommitted(t, w, src, 6)

	assert.Equal(t, []int64{0, 1, 2, 3, 4, 5}, src.commits())
	after, err := store.GetByID(context.Background(), "ITEM-1")
	require.NoError(t, err)
	assert.Equal(t, before.Quantity+7, after.Quantity)
}

type flakyStore struct {
	mu    sync.Mutex
	fails int
	calls int
	err   error
}

func (f *flakyStore) Adjust(_ context.Context, itemID string, delta int64) (model.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.fails {
		return model.InventoryItem{}, f.err
	}
	return model.InventoryItem{ItemID: itemID, Quantity: delta}, nil
}

func TestAdjustmentWorker_RetriesTransientErrors(t *testing.T) {
	store := &flakyStore{fails: 2, err: inventory.ErrPoolExhausted}
	src := newChanSource(adjustment(t, "ITEM-1", 5))
	w := NewAdjustmentWorker(src, store)
	w.RetryBackoff = time.Millisecond

	runUntilCommitted(t, w, src, 1)
	assert.Equal(t, 3, store.calls)
}

func TestAdjustmentWorker_GivesUpAfterMaxAttempts(t *testing.T) {
	store := &flakyStore{fails: 100, err: &inventory.StorageError{Op: "adjust", Err: errors.New("db gone")}}
	src := newChanSource(adjustment(t, "ITEM-1", 5), adjustment(t, "ITEM-2", 5))
	w := NewAdjustmentWorker(src, store)
	w.MaxAttempts = 2
	w.RetryBackoff = time.Millisecond

	runUntilCommitted(t, w, src, 2)
	assert.Equal(t, 4, store.calls)
}

func TestAdjustmentWorker_DoesNotRetryPermanentErrors(t *testing.T) {
	store := &flakyStore{fails: 100, err: errors.New("weird")}
	src := newChanSource(adjustment(t, "ITEM-1", 5))
	w := NewAdjustmentWorker(src, store)
	w.RetryBackoff = time.Millisecond

	runUntilCommitted(t, w, src, 1)
	assert.Equal(t, 1, store.calls)
}
