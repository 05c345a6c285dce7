package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mockstock/server/internal/domain"
)

// priceOracle implements domain.PriceOracle as a plain read of the stocks
// table. Price freshness is the market-data poller's problem; trades take
// whatever price is current at the moment of the locked read.
type priceOracle struct {
	db *DB
}

func NewPriceOracle(db *DB) domain.PriceOracle {
	return &priceOracle{db: db}
}

func (o *priceOracle) GetStock(ctx context.Context, tx domain.Tx, stockID int64) (*domain.Stock, error) {
	dbTx, err := unwrap(tx)
	if err != nil {
		return nil, err
	}

	var st domain.Stock
	err = dbTx.QueryRowContext(ctx, `
		SELECT id, symbol, name, current_price, updated_at
		FROM stocks
		WHERE id = $1
	`, stockID).Scan(&st.ID, &st.Symbol, &st.Name, &st.CurrentPrice, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", domain.ErrStockNotFound, stockID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan stock: %w", err)
	}
	return &st, nil
}
