package model

import "time"

// UsageEvent is one authenticated API call, stored in ClickHouse.
type UsageEvent struct {
	ID         string    `db:"id"          json:"id"` // ULID
	CustomerID string    `db:"customer_id" json:"customer_id"`
	Tier       string    `db:"tier"        json:"tier"`
	Method     string    `db:"method"      json:"method"`
	Path       string    `db:"path"        json:"path"`
	Status     uint16    `db:"status"      json:"status"`
	DurationMs uint32    `db:"duration_ms" json:"duration_ms"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
}
