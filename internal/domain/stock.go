package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock is one entry of the tradable catalog. CurrentPrice is maintained by
// the external market-data collaborator and is read-only for the trade core.
type Stock struct {
	ID           int64           `json:"id"`
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
