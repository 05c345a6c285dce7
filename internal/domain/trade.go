package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeSide is the direction of a trade.
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// Trade is one entry of the append-only trade ledger. Rows are never updated
// or deleted after creation; the ledger exists for audit and for resolving
// in-doubt requests by re-querying.
type Trade struct {
	ID         uuid.UUID       `json:"id"`
	UserID     int64           `json:"userId"`
	StockID    int64           `json:"stockId"`
	Side       TradeSide       `json:"side"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int64           `json:"quantity"`
	Total      decimal.Decimal `json:"total"`
	ExecutedAt time.Time       `json:"executedAt"`
}
