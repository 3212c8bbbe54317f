package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/model"
	"github.com/jmoiron/sqlx"
)

// InventoryRepository is the durable inventory backend (MySQL, Postgres or SQLite).
type InventoryRepository struct {
	db         *sqlx.DB
	dialect    Dialect
	sampleSize int
	now        func() time.Time
}

// NewInventoryRepository returns a repository that seeds sampleSize items on
// Init when the table is empty (0 disables seeding).
func NewInventoryRepository(db *sqlx.DB, dialect Dialect, sampleSize int) *InventoryRepository {
	return &InventoryRepository{
		db:         db,
		dialect:    dialect,
		sampleSize: sampleSize,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *InventoryRepository) Init(ctx context.Context) error {
	if err := ApplySchema(ctx, r.db, r.dialect); err != nil {
		return err
	}
	if r.sampleSize <= 0 {
		return nil
	}
	n, err := r.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return r.SeedSample(ctx, r.sampleSize)
}

const itemColumns = `id, item_id, name, quantity, last_updated`

func (r *InventoryRepository) Get(ctx context.Context, itemID string) (model.InventoryItem, error) {
	var it model.InventoryItem
	err := r.db.GetContext(ctx, &it, r.db.Rebind(`SELECT `+itemColumns+` FROM inventory WHERE item_id = ? LIMIT 1`), itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.InventoryItem{}, model.ErrNotFound
	}
	if err != nil {
		return model.InventoryItem{}, err
	}
	return it, nil
}

// List returns items ordered by insertion id.
func (r *InventoryRepository) List(ctx context.Context, offset, limit int) ([]model.InventoryItem, error) {
	items := []model.InventoryItem{}
	err := r.db.SelectContext(ctx, &items,
		r.db.Rebind(`SELECT `+itemColumns+` FROM inventory ORDER BY id LIMIT ? OFFSET ?`), limit, offset)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *InventoryRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM inventory`); err != nil {
		return 0, err
	}
	return n, nil
}

// Insert adds a single item; a duplicate item_id yields model.ErrDuplicateItem.
func (r *InventoryRepository) Insert(ctx context.Context, it model.InventoryItem) (model.InventoryItem, error) {
	if it.LastUpdated.IsZero() {
		it.LastUpdated = r.now()
	}
	const q = `INSERT INTO inventory (item_id, name, quantity, last_updated) VALUES (?, ?, ?, ?)`
	var err error
	if r.dialect == DialectPostgres {
		// pgx does not report LastInsertId
		err = r.db.QueryRowxContext(ctx, r.db.Rebind(q+` RETURNING id`),
			it.ItemID, it.Name, it.Quantity, it.LastUpdated).Scan(&it.ID)
	} else {
		var res sql.Result
		res, err = r.db.ExecContext(ctx, q, it.ItemID, it.Name, it.Quantity, it.LastUpdated)
		if err == nil {
			it.ID, err = res.LastInsertId()
		}
	}
	if err != nil {
		if isUniqueViolation(err) {
			return model.InventoryItem{}, fmt.Errorf("%w: %s", model.ErrDuplicateItem, it.ItemID)
		}
		return model.InventoryItem{}, err
	}
	return it, nil
}

// Adjust changes quantity by delta inside one transaction. Quantity never
// drops below zero.
func (r *InventoryRepository) Adjust(ctx context.Context, itemID string, delta int64) (model.InventoryItem, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.InventoryItem{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE inventory
		   SET quantity = quantity + ?, last_updated = ?
		 WHERE item_id = ? AND quantity + ? >= 0
	`), delta, r.now(), itemID, delta)
	if err != nil {
		return model.InventoryItem{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.InventoryItem{}, err
	}
	if n == 0 {
		var one int
		err := tx.QueryRowxContext(ctx, tx.Rebind(`SELECT 1 FROM inventory WHERE item_id = ? LIMIT 1`), itemID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return model.InventoryItem{}, model.ErrNotFound
		}
		if err != nil {
			return model.InventoryItem{}, err
		}
		return model.InventoryItem{}, model.ErrInsufficientQuantity
	}

	var it model.InventoryItem
	if err := tx.GetContext(ctx, &it, tx.Rebind(`SELECT `+itemColumns+` FROM inventory WHERE item_id = ?`), itemID); err != nil {
		return model.InventoryItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.InventoryItem{}, err
	}
	return it, nil
}

// SeedSample inserts ITEM-0..ITEM-(n-1) with random quantities in one transaction.
func (r *InventoryRepository) SeedSample(ctx context.Context, n int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(r.insertIgnore()))
	if err != nil {
		return fmt.Errorf("prepare seed: %w", err)
	}
	defer stmt.Close()

	now := r.now()
	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, fmt.Sprintf("ITEM-%d", i), fmt.Sprintf("Product %d", i), rand.Int64N(1001), now); err != nil {
			return fmt.Errorf("insert sample %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

// insertIgnore skips rows whose item_id already exists. Postgres aborts the
// whole transaction on a unique violation, so duplicates must not raise one.
func (r *InventoryRepository) insertIgnore() string {
	if r.dialect == DialectMySQL {
		return `INSERT IGNORE INTO inventory (item_id, name, quantity, last_updated) VALUES (?, ?, ?, ?)`
	}
	return `INSERT INTO inventory (item_id, name, quantity, last_updated) VALUES (?, ?, ?, ?)
		ON CONFLICT (item_id) DO NOTHING`
}
