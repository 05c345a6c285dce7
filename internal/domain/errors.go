package domain

import "errors"

// Business error kinds. Handlers branch on these with errors.Is to pick a
// status code, so services must wrap them with %w rather than rephrase them.
var (
	ErrInvalidOrder         = errors.New("invalid order")
	ErrUserNotFound         = errors.New("user not found")
	ErrStockNotFound        = errors.New("stock not found")
	ErrHoldingNotFound      = errors.New("holding not found")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrSymbolExists         = errors.New("stock symbol already exists")

	// ErrTradeConflict means the database detected a concurrent-modification
	// conflict and nothing was committed; the caller may retry the request.
	ErrTradeConflict = errors.New("trade conflict, safe to retry")
)
