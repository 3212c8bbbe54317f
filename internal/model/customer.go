package model

import "time"

type CustomerStatus string

const (
	CustomerActive    CustomerStatus = "active"
	CustomerSuspended CustomerStatus = "suspended"
)

// Customer is a tenant of the simulated API. Customers are defined by
// configuration (or the customers table) and never change at runtime.
type Customer struct {
	ID        string         `db:"customer_id" mapstructure:"id"`
	APIKey    string         `db:"api_key"     mapstructure:"api_key"`
	Tier      Tier           `db:"tier"        mapstructure:"tier"`
	Status    CustomerStatus `db:"status"      mapstructure:"status"` // active|suspended
	CreatedAt time.Time      `db:"created_at"  mapstructure:"-"`
}

// Active reports whether the customer may log in. An empty status counts as active.
func (c Customer) Active() bool {
	return c.Status == "" || c.Status == CustomerActive
}
