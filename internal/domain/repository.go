package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Tx is an opaque transaction handle produced by a UnitOfWork. Stores only
// accept handles created by their own UnitOfWork implementation.
type Tx interface{}

// UnitOfWork runs fn inside one all-or-nothing transaction. If fn returns an
// error the transaction rolls back and no store mutation made through the
// handle is observable.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx Tx) error) error
}

// AccountStore owns User.Balance and Holding rows. The ForUpdate reads lock
// the row for the rest of the transaction, so a read-check-write sequence on
// the same user or holding serializes against concurrent trades.
type AccountStore interface {
	// GetUserForUpdate locks and returns the user row, or ErrUserNotFound.
	GetUserForUpdate(ctx context.Context, tx Tx, userID int64) (*User, error)

	// GetUser reads a user outside any trade transaction, or ErrUserNotFound.
	GetUser(ctx context.Context, userID int64) (*User, error)

	// GetHoldingForUpdate locks and returns the holding row, or (nil, nil)
	// when the user holds none of the stock.
	GetHoldingForUpdate(ctx context.Context, tx Tx, userID, stockID int64) (*Holding, error)

	// AdjustBalance adds delta (which may be negative) to the user's balance
	// and returns the updated user. Fails with ErrInsufficientFunds if the
	// result would be negative. Callers must have locked the user row first.
	AdjustBalance(ctx context.Context, tx Tx, userID int64, delta decimal.Decimal) (*User, error)

	// UpsertHolding adds deltaQty to the holding, creating the row on a first
	// positive delta and deleting it when the quantity lands on exactly zero.
	// Fails with ErrInsufficientHoldings if the result would be negative.
	// Returns the resulting quantity (zero when the row was deleted).
	UpsertHolding(ctx context.Context, tx Tx, userID, stockID int64, deltaQty int64) (int64, error)

	// ListHoldings returns the user's holdings joined with stock metadata,
	// ordered by symbol.
	ListHoldings(ctx context.Context, userID int64) ([]*HoldingWithStock, error)
}

// PriceOracle is the read-only price lookup used by the trade engine. Prices
// are refreshed by the external market-data collaborator, never here.
type PriceOracle interface {
	// GetStock returns the stock with its current price, or ErrStockNotFound.
	GetStock(ctx context.Context, tx Tx, stockID int64) (*Stock, error)
}

// TradeLedger is the append-only record of executed trades.
type TradeLedger interface {
	Append(ctx context.Context, tx Tx, trade *Trade) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]*Trade, error)
}

// StockRepository manages the tradable catalog.
type StockRepository interface {
	List(ctx context.Context) ([]*Stock, error)
	GetByID(ctx context.Context, id int64) (*Stock, error)
	// Create inserts a new stock and fills in its ID. Fails with
	// ErrSymbolExists when the symbol is already listed.
	Create(ctx context.Context, stock *Stock) error
	Update(ctx context.Context, stock *Stock) error
	Delete(ctx context.Context, id int64) error
}
