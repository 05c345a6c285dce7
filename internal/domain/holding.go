package domain

import "time"

// Holding is the quantity of one stock owned by one user. A holding row only
// exists while Quantity > 0; selling down to zero deletes the row instead of
// leaving a zero-quantity record behind.
type Holding struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	StockID   int64     `json:"stockId"`
	Quantity  int64     `json:"quantity"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HoldingWithStock joins a holding with its stock metadata for portfolio views.
type HoldingWithStock struct {
	Holding
	Stock Stock `json:"stock"`
}
