package repository

import (
	"context"
	"fmt"

	"github.com/jmehdipour/inventory-sim/internal/model"
	"github.com/jmoiron/sqlx"
)

// UsageRepository persists and lists API usage events (ClickHouse).
type UsageRepository interface {
	InsertBatch(ctx context.Context, events []model.UsageEvent) error
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]model.UsageEvent, error)
}

type usageRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewUsageRepository(ch *sqlx.DB) UsageRepository {
	return &usageRepository{ch: ch}
}

// InitUsageSchema creates the usage_events table.
func InitUsageSchema(ctx context.Context, ch *sqlx.DB) error {
	return ApplySchema(ctx, ch, DialectClickHouse)
}

// InsertBatch sends all events as a single ClickHouse block.
func (r *usageRepository) InsertBatch(ctx context.Context, events []model.UsageEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.ch.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO usage_events (id, customer_id, tier, method, path, status, duration_ms, created_at)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, e.ID, e.CustomerID, e.Tier, e.Method, e.Path, e.Status, e.DurationMs, e.CreatedAt); err != nil {
			return fmt.Errorf("append %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

func (r *usageRepository) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]model.UsageEvent, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT id, customer_id, tier, method, path, status, duration_ms, created_at
		FROM usage_events
		WHERE customer_id = ?
		ORDER BY created_at DESC LIMIT ? OFFSET ?
	`
	rows := []model.UsageEvent{}
	if err := r.ch.SelectContext(ctx, &rows, q, customerID, limit, offset); err != nil {
		return nil, err
	}
	return rows, nil
}
