package postgres

import (
	"context"
	"fmt"

	"github.com/mockstock/server/internal/domain"
)

// tradeLedger implements domain.TradeLedger. Insert-only; rows are never
// touched again.
type tradeLedger struct {
	db *DB
}

func NewTradeLedger(db *DB) domain.TradeLedger {
	return &tradeLedger{db: db}
}

func (l *tradeLedger) Append(ctx context.Context, tx domain.Tx, trade *domain.Trade) error {
	dbTx, err := unwrap(tx)
	if err != nil {
		return err
	}

	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO trades (id, user_id, stock_id, side, price, quantity, total, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, trade.ID, trade.UserID, trade.StockID, string(trade.Side), trade.Price, trade.Quantity, trade.Total, trade.ExecutedAt)
	if err != nil {
		return fmt.Errorf("failed to record trade: %w", err)
	}
	return nil
}

func (l *tradeLedger) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.Trade, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, user_id, stock_id, side, price, quantity, total, executed_at
		FROM trades
		WHERE user_id = $1
		ORDER BY executed_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		var t domain.Trade
		var side string
		if err := rows.Scan(&t.ID, &t.UserID, &t.StockID, &side, &t.Price, &t.Quantity, &t.Total, &t.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		t.Side = domain.TradeSide(side)
		trades = append(trades, &t)
	}
	return trades, rows.Err()
}
