package inventory

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/model"
)

// MemoryBackend is the synthetic backend: a generated dataset held in memory.
// Nothing survives a restart.
type MemoryBackend struct {
	mu     sync.RWMutex
	items  []model.InventoryItem // ordered by ID
	index  map[string]int        // item_id -> position in items
	nextID int64

	sampleSize int
	seed       uint64
	now        func() time.Time
}

// NewMemoryBackend generates sampleSize items on Init. The same seed always
// yields the same quantities.
func NewMemoryBackend(sampleSize int, seed uint64) *MemoryBackend {
	return &MemoryBackend{
		index:      make(map[string]int),
		nextID:     1,
		sampleSize: sampleSize,
		seed:       seed,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

var _ Backend = (*MemoryBackend)(nil)

func (m *MemoryBackend) String() string { return "synthetic" }

func (m *MemoryBackend) Init(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) > 0 {
		return nil
	}

	rng := rand.New(rand.NewPCG(m.seed, m.seed^0x9e3779b97f4a7c15))
	now := m.now()
	for i := 0; i < m.sampleSize; i++ {
		m.insertLocked(model.InventoryItem{
			ItemID:      fmt.Sprintf("ITEM-%d", i),
			Name:        fmt.Sprintf("Product %d", i),
			Quantity:    rng.Int64N(1001),
			LastUpdated: now,
		})
	}
	return nil
}

// Insert adds one item; item ids are unique.
func (m *MemoryBackend) Insert(it model.InventoryItem) (model.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.index[it.ItemID]; dup {
		return model.InventoryItem{}, fmt.Errorf("%w: %s", model.ErrDuplicateItem, it.ItemID)
	}
	if it.LastUpdated.IsZero() {
		it.LastUpdated = m.now()
	}
	return m.insertLocked(it), nil
}

func (m *MemoryBackend) insertLocked(it model.InventoryItem) model.InventoryItem {
	it.ID = m.nextID
	m.nextID++
	m.index[it.ItemID] = len(m.items)
	m.items = append(m.items, it)
	return it
}

func (m *MemoryBackend) Get(_ context.Context, itemID string) (model.InventoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.index[itemID]
	if !ok {
		return model.InventoryItem{}, model.ErrNotFound
	}
	return m.items[i], nil
}

func (m *MemoryBackend) List(_ context.Context, offset, limit int) ([]model.InventoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("invalid range offset=%d limit=%d", offset, limit)
	}
	if offset >= len(m.items) {
		return []model.InventoryItem{}, nil
	}
	end := offset + min(limit, len(m.items)-offset)
	out := make([]model.InventoryItem, end-offset)
	copy(out, m.items[offset:end])
	return out, nil
}

func (m *MemoryBackend) Count(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.items)), nil
}

func (m *MemoryBackend) Adjust(_ context.Context, itemID string, delta int64) (model.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.index[itemID]
	if !ok {
		return model.InventoryItem{}, model.ErrNotFound
	}
	if m.items[i].Quantity+delta < 0 {
		return model.InventoryItem{}, model.ErrInsufficientQuantity
	}
	m.items[i].Quantity += delta
	m.items[i].LastUpdated = m.now()
	return m.items[i], nil
}
