package portfolio

import (
	"context"
	"fmt"

	"github.com/mockstock/server/internal/domain"
)

// historyLimit caps the trade history page, matching the HTTP contract.
const historyLimit = 50

// Service answers read-only portfolio questions: what a user holds, what
// their balance is, and what they traded recently. It never mutates state, so
// calling it twice without an intervening trade returns identical results.
type Service struct {
	accounts domain.AccountStore
	ledger   domain.TradeLedger
}

func NewService(accounts domain.AccountStore, ledger domain.TradeLedger) *Service {
	return &Service{accounts: accounts, ledger: ledger}
}

// Holdings returns the user's holdings joined with stock metadata. An empty
// slice (not nil) means the user holds nothing.
func (s *Service) Holdings(ctx context.Context, userID int64) ([]*domain.HoldingWithStock, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrInvalidOrder)
	}
	return s.accounts.ListHoldings(ctx, userID)
}

// Balance returns the user with their current balance, or ErrUserNotFound.
func (s *Service) Balance(ctx context.Context, userID int64) (*domain.User, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrInvalidOrder)
	}
	return s.accounts.GetUser(ctx, userID)
}

// History returns the user's most recent trades, newest first.
func (s *Service) History(ctx context.Context, userID int64) ([]*domain.Trade, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrInvalidOrder)
	}
	return s.ledger.ListByUser(ctx, userID, historyLimit)
}
