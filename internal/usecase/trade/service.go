package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mockstock/server/internal/domain"
)

// Service executes buy and sell orders as atomic transactions against the
// account store and price oracle. Every order either commits all of its
// effects (balance, holding, ledger entry) or none of them.
type Service struct {
	uow      domain.UnitOfWork
	accounts domain.AccountStore
	oracle   domain.PriceOracle
	ledger   domain.TradeLedger
	log      *logrus.Logger
}

// Result is what a successful trade returns to the HTTP boundary: the user
// with their post-trade balance plus the ledger entry that was recorded.
type Result struct {
	User  *domain.User
	Trade *domain.Trade
}

func NewService(uow domain.UnitOfWork, accounts domain.AccountStore, oracle domain.PriceOracle, ledger domain.TradeLedger, log *logrus.Logger) *Service {
	return &Service{
		uow:      uow,
		accounts: accounts,
		oracle:   oracle,
		ledger:   ledger,
		log:      log,
	}
}

// validateOrder fails fast on malformed input before any transaction opens.
func validateOrder(userID, stockID, quantity int64) error {
	if userID <= 0 || stockID <= 0 {
		return fmt.Errorf("%w: userId and stockId are required", domain.ErrInvalidOrder)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be a positive integer", domain.ErrInvalidOrder)
	}
	return nil
}

// Buy purchases quantity shares of a stock at its current price.
//
// Inside one transaction: lock the user row, resolve the price, debit the
// balance (failing with ErrInsufficientFunds if it would go negative), add to
// the holding, and append a BUY ledger entry. Lock order is always user row
// first, then holding row, so two trades for the same user cannot deadlock.
func (s *Service) Buy(ctx context.Context, userID, stockID, quantity int64) (*Result, error) {
	if err := validateOrder(userID, stockID, quantity); err != nil {
		return nil, err
	}

	var res Result
	err := s.uow.Do(ctx, func(tx domain.Tx) error {
		user, err := s.accounts.GetUserForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		stock, err := s.oracle.GetStock(ctx, tx, stockID)
		if err != nil {
			return err
		}

		total := stock.CurrentPrice.Mul(decimal.NewFromInt(quantity))
		if !user.CanAfford(total) {
			return fmt.Errorf("%w: balance %s, cost %s", domain.ErrInsufficientFunds, user.Balance, total)
		}

		// AdjustBalance re-checks against the locked row, so the balance can
		// never go negative even if this pre-check ever drifts.
		updated, err := s.accounts.AdjustBalance(ctx, tx, user.ID, total.Neg())
		if err != nil {
			return err
		}

		if _, err := s.accounts.UpsertHolding(ctx, tx, user.ID, stock.ID, quantity); err != nil {
			return err
		}

		trade := &domain.Trade{
			ID:         uuid.New(),
			UserID:     user.ID,
			StockID:    stock.ID,
			Side:       domain.SideBuy,
			Price:      stock.CurrentPrice,
			Quantity:   quantity,
			Total:      total,
			ExecutedAt: time.Now().UTC(),
		}
		if err := s.ledger.Append(ctx, tx, trade); err != nil {
			return err
		}

		res.User = updated
		res.Trade = trade
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"userId":  userID,
		"stockId": stockID,
		"qty":     quantity,
		"total":   res.Trade.Total.String(),
	}).Info("buy executed")

	return &res, nil
}

// Sell is the inverse of Buy: lock the user row, resolve the price, lock the
// holding row (ErrHoldingNotFound if the user owns none of the stock,
// ErrInsufficientHoldings if they own fewer than quantity), credit the
// proceeds, decrement the holding (deleting it at exactly zero), and append a
// SELL ledger entry.
func (s *Service) Sell(ctx context.Context, userID, stockID, quantity int64) (*Result, error) {
	if err := validateOrder(userID, stockID, quantity); err != nil {
		return nil, err
	}

	var res Result
	err := s.uow.Do(ctx, func(tx domain.Tx) error {
		user, err := s.accounts.GetUserForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		stock, err := s.oracle.GetStock(ctx, tx, stockID)
		if err != nil {
			return err
		}

		holding, err := s.accounts.GetHoldingForUpdate(ctx, tx, user.ID, stock.ID)
		if err != nil {
			return err
		}
		if holding == nil {
			return fmt.Errorf("%w: user %d holds no %s", domain.ErrHoldingNotFound, user.ID, stock.Symbol)
		}
		if holding.Quantity < quantity {
			return fmt.Errorf("%w: holding %d shares, selling %d", domain.ErrInsufficientHoldings, holding.Quantity, quantity)
		}

		total := stock.CurrentPrice.Mul(decimal.NewFromInt(quantity))

		updated, err := s.accounts.AdjustBalance(ctx, tx, user.ID, total)
		if err != nil {
			return err
		}

		if _, err := s.accounts.UpsertHolding(ctx, tx, user.ID, stock.ID, -quantity); err != nil {
			return err
		}

		trade := &domain.Trade{
			ID:         uuid.New(),
			UserID:     user.ID,
			StockID:    stock.ID,
			Side:       domain.SideSell,
			Price:      stock.CurrentPrice,
			Quantity:   quantity,
			Total:      total,
			ExecutedAt: time.Now().UTC(),
		}
		if err := s.ledger.Append(ctx, tx, trade); err != nil {
			return err
		}

		res.User = updated
		res.Trade = trade
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"userId":  userID,
		"stockId": stockID,
		"qty":     quantity,
		"total":   res.Trade.Total.String(),
	}).Info("sell executed")

	return &res, nil
}
