package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mockstock/server/internal/domain"
)

// accountStore implements domain.AccountStore. The ForUpdate reads take row
// locks that serialize concurrent trades touching the same user or holding;
// the balance and quantity checks run against those locked rows, so two
// trades can never both commit off the same stale read.
type accountStore struct {
	db *DB
}

func NewAccountStore(db *DB) domain.AccountStore {
	return &accountStore{db: db}
}

func (s *accountStore) GetUserForUpdate(ctx context.Context, tx domain.Tx, userID int64) (*domain.User, error) {
	dbTx, err := unwrap(tx)
	if err != nil {
		return nil, err
	}

	row := dbTx.QueryRowContext(ctx, `
		SELECT id, name, email, balance, created_at
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID)
	return scanUser(row, userID)
}

func (s *accountStore) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, balance, created_at
		FROM users
		WHERE id = $1
	`, userID)
	return scanUser(row, userID)
}

func scanUser(row *sql.Row, userID int64) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Balance, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", domain.ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

func (s *accountStore) GetHoldingForUpdate(ctx context.Context, tx domain.Tx, userID, stockID int64) (*domain.Holding, error) {
	dbTx, err := unwrap(tx)
	if err != nil {
		return nil, err
	}

	var h domain.Holding
	err = dbTx.QueryRowContext(ctx, `
		SELECT id, user_id, stock_id, quantity, updated_at
		FROM holdings
		WHERE user_id = $1 AND stock_id = $2
		FOR UPDATE
	`, userID, stockID).Scan(&h.ID, &h.UserID, &h.StockID, &h.Quantity, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan holding: %w", err)
	}
	return &h, nil
}

func (s *accountStore) AdjustBalance(ctx context.Context, tx domain.Tx, userID int64, delta decimal.Decimal) (*domain.User, error) {
	dbTx, err := unwrap(tx)
	if err != nil {
		return nil, err
	}

	// The guard in the WHERE clause runs against the row locked by
	// GetUserForUpdate, making the check and the write one atomic step.
	var u domain.User
	err = dbTx.QueryRowContext(ctx, `
		UPDATE users
		SET balance = balance + $1
		WHERE id = $2 AND balance + $1 >= 0
		RETURNING id, name, email, balance, created_at
	`, delta, userID).Scan(&u.ID, &u.Name, &u.Email, &u.Balance, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Either the user vanished or the guard rejected the debit.
		var exists bool
		if probeErr := dbTx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID,
		).Scan(&exists); probeErr != nil {
			return nil, fmt.Errorf("failed to probe user: %w", probeErr)
		}
		if !exists {
			return nil, fmt.Errorf("%w: id %d", domain.ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("%w: debit of %s rejected", domain.ErrInsufficientFunds, delta.Neg())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to adjust balance: %w", err)
	}
	return &u, nil
}

func (s *accountStore) UpsertHolding(ctx context.Context, tx domain.Tx, userID, stockID int64, deltaQty int64) (int64, error) {
	dbTx, err := unwrap(tx)
	if err != nil {
		return 0, err
	}

	var current int64
	err = dbTx.QueryRowContext(ctx, `
		SELECT quantity
		FROM holdings
		WHERE user_id = $1 AND stock_id = $2
		FOR UPDATE
	`, userID, stockID).Scan(&current)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if deltaQty < 0 {
			return 0, fmt.Errorf("%w: no holding for stock %d", domain.ErrInsufficientHoldings, stockID)
		}
		if deltaQty == 0 {
			return 0, nil
		}
		_, err = dbTx.ExecContext(ctx, `
			INSERT INTO holdings (user_id, stock_id, quantity)
			VALUES ($1, $2, $3)
		`, userID, stockID, deltaQty)
		if err != nil {
			return 0, fmt.Errorf("failed to create holding: %w", err)
		}
		return deltaQty, nil

	case err != nil:
		return 0, fmt.Errorf("failed to lock holding: %w", err)
	}

	next := current + deltaQty
	switch {
	case next < 0:
		return 0, fmt.Errorf("%w: holding %d shares, delta %d", domain.ErrInsufficientHoldings, current, deltaQty)

	case next == 0:
		// Quantity landed on zero, so the row goes away instead of persisting
		// an empty holding.
		_, err = dbTx.ExecContext(ctx, `
			DELETE FROM holdings
			WHERE user_id = $1 AND stock_id = $2
		`, userID, stockID)
		if err != nil {
			return 0, fmt.Errorf("failed to delete holding: %w", err)
		}
		return 0, nil

	default:
		_, err = dbTx.ExecContext(ctx, `
			UPDATE holdings
			SET quantity = $3, updated_at = NOW()
			WHERE user_id = $1 AND stock_id = $2
		`, userID, stockID, next)
		if err != nil {
			return 0, fmt.Errorf("failed to update holding: %w", err)
		}
		return next, nil
	}
}

func (s *accountStore) ListHoldings(ctx context.Context, userID int64) ([]*domain.HoldingWithStock, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.id, h.user_id, h.stock_id, h.quantity, h.updated_at,
		       s.id, s.symbol, s.name, s.current_price, s.updated_at
		FROM holdings h
		JOIN stocks s ON s.id = h.stock_id
		WHERE h.user_id = $1
		ORDER BY s.symbol
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := make([]*domain.HoldingWithStock, 0)
	for rows.Next() {
		var hs domain.HoldingWithStock
		if err := rows.Scan(
			&hs.ID, &hs.UserID, &hs.StockID, &hs.Quantity, &hs.UpdatedAt,
			&hs.Stock.ID, &hs.Stock.Symbol, &hs.Stock.Name, &hs.Stock.CurrentPrice, &hs.Stock.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan holding row: %w", err)
		}
		holdings = append(holdings, &hs)
	}
	return holdings, rows.Err()
}
