// Package inventory provides pool-bounded access to the inventory dataset.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/delay"
	"github.com/jmehdipour/inventory-sim/internal/model"
)

var ErrInvalidPage = errors.New("page and limit must be positive")

// Backend is the raw dataset behind a Store.
type Backend interface {
	Init(ctx context.Context) error
	Get(ctx context.Context, itemID string) (model.InventoryItem, error)
	List(ctx context.Context, offset, limit int) ([]model.InventoryItem, error)
	Count(ctx context.Context) (int64, error)
	Adjust(ctx context.Context, itemID string, delta int64) (model.InventoryItem, error)
}

// StorageError wraps an unexpected backend failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "storage " + e.Op + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

// Page is one slice of the ordered item set. Total is nil unless requested.
type Page struct {
	Items []model.InventoryItem
	Total *int64
}

// Store is the only mutator of the inventory. Every call holds a pool slot
// for its duration, plus HoldLatency of simulated query time.
type Store struct {
	backend     Backend
	pool        *Pool
	holdLatency time.Duration
}

func NewStore(backend Backend, pool *Pool, holdLatency time.Duration) *Store {
	return &Store{backend: backend, pool: pool, holdLatency: holdLatency}
}

func (s *Store) Pool() *Pool { return s.pool }

// Init prepares the backend (schema, sample data).
func (s *Store) Init(ctx context.Context) error {
	if err := s.backend.Init(ctx); err != nil {
		return &StorageError{Op: "init", Err: err}
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, itemID string) (model.InventoryItem, error) {
	var it model.InventoryItem
	err := s.withSlot(ctx, "get", func(ctx context.Context) error {
		var err error
		it, err = s.backend.Get(ctx, itemID)
		return err
	})
	return it, err
}

// List returns page (1-indexed) of size limit, ordered by insertion key.
// The total count is computed only when withTotal is set.
func (s *Store) List(ctx context.Context, page, limit int, withTotal bool) (Page, error) {
	if page < 1 || limit < 1 {
		return Page{}, ErrInvalidPage
	}
	if page-1 > math.MaxInt/limit {
		return Page{}, fmt.Errorf("%w: page %d out of range", ErrInvalidPage, page)
	}
	offset := (page - 1) * limit

	var out Page
	err := s.withSlot(ctx, "list", func(ctx context.Context) error {
		items, err := s.backend.List(ctx, offset, limit)
		if err != nil {
			return err
		}
		out.Items = items
		if withTotal {
			n, err := s.backend.Count(ctx)
			if err != nil {
				return err
			}
			out.Total = &n
		}
		return nil
	})
	return out, err
}

func (s *Store) Adjust(ctx context.Context, itemID string, delta int64) (model.InventoryItem, error) {
	var it model.InventoryItem
	err := s.withSlot(ctx, "adjust", func(ctx context.Context) error {
		var err error
		it, err = s.backend.Adjust(ctx, itemID, delta)
		return err
	})
	return it, err
}

func (s *Store) withSlot(ctx context.Context, op string, fn func(context.Context) error) error {
	if err := s.pool.Acquire(ctx); err != nil {
		return err
	}
	defer s.pool.Release()

	if err := delay.Sleep(ctx, s.holdLatency); err != nil {
		return err
	}

	err := fn(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrNotFound),
		errors.Is(err, model.ErrInsufficientQuantity),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return &StorageError{Op: op, Err: err}
	}
}

// IsStorageError reports whether err came from the backend itself.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
