package model

// Adjustment is the payload consumed from Kafka by the adjuster worker.
type Adjustment struct {
	ItemID string `json:"item_id"`
	Delta  int64  `json:"delta"`  // signed quantity change
	Reason string `json:"reason"` // free text, e.g. "restock"
}
