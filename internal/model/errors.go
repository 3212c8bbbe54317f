package model

import "errors"

var (
	// ErrNotFound is returned when an inventory item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateItem is returned when an item_id is inserted twice.
	ErrDuplicateItem = errors.New("duplicate item id")
	// ErrInsufficientQuantity is returned when an adjustment would make quantity negative.
	ErrInsufficientQuantity = errors.New("insufficient quantity")
)
