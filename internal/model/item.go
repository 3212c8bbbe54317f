package model

import "time"

// InventoryItem is the row persisted in the inventory table. ID is the
// insertion key that defines list order; ItemID is the public identifier.
type InventoryItem struct {
	ID          int64     `db:"id"           json:"id"`
	ItemID      string    `db:"item_id"      json:"item_id"`
	Name        string    `db:"name"         json:"name"`
	Quantity    int64     `db:"quantity"     json:"quantity"`
	LastUpdated time.Time `db:"last_updated" json:"last_updated"`
}
