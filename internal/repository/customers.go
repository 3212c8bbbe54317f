package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/model"
	"github.com/jmoiron/sqlx"
)

type CustomersRepository interface {
	// GetByID returns (nil, nil) when the customer does not exist.
	GetByID(ctx context.Context, customerID string) (*model.Customer, error)
}

type CustomersRepositoryImpl struct {
	db      *sqlx.DB
	dialect Dialect
}

func NewCustomersRepository(db *sqlx.DB, dialect Dialect) *CustomersRepositoryImpl {
	return &CustomersRepositoryImpl{db: db, dialect: dialect}
}

var _ CustomersRepository = (*CustomersRepositoryImpl)(nil)

func (r *CustomersRepositoryImpl) GetByID(ctx context.Context, customerID string) (*model.Customer, error) {
	var c model.Customer
	err := r.db.GetContext(ctx, &c, r.db.Rebind(`
		SELECT customer_id, api_key, tier, status, created_at
		  FROM customers
		 WHERE customer_id = ? LIMIT 1
	`), customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Upsert inserts or refreshes customers keyed by customer_id (idempotent).
func (r *CustomersRepositoryImpl) Upsert(ctx context.Context, customers []model.Customer) error {
	q := `
INSERT INTO customers (customer_id, api_key, tier, status, created_at)
VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    api_key = VALUES(api_key),
    tier    = VALUES(tier),
    status  = VALUES(status)
`
	if r.dialect == DialectSQLite || r.dialect == DialectPostgres {
		q = `
INSERT INTO customers (customer_id, api_key, tier, status, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(customer_id) DO UPDATE SET
    api_key = excluded.api_key,
    tier    = excluded.tier,
    status  = excluded.status
`
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, c := range customers {
		status := c.Status
		if status == "" {
			status = model.CustomerActive
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(q), c.ID, c.APIKey, c.Tier.String(), string(status), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}
