package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/mockstock/server/internal/domain"
)

// stockRepository implements domain.StockRepository for catalog management.
type stockRepository struct {
	db *DB
}

func NewStockRepository(db *DB) domain.StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) List(ctx context.Context) ([]*domain.Stock, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, symbol, name, current_price, updated_at
		FROM stocks
		ORDER BY symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	stocks := make([]*domain.Stock, 0)
	for rows.Next() {
		var st domain.Stock
		if err := rows.Scan(&st.ID, &st.Symbol, &st.Name, &st.CurrentPrice, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock row: %w", err)
		}
		stocks = append(stocks, &st)
	}
	return stocks, rows.Err()
}

func (r *stockRepository) GetByID(ctx context.Context, id int64) (*domain.Stock, error) {
	var st domain.Stock
	err := r.db.QueryRowContext(ctx, `
		SELECT id, symbol, name, current_price, updated_at
		FROM stocks
		WHERE id = $1
	`, id).Scan(&st.ID, &st.Symbol, &st.Name, &st.CurrentPrice, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", domain.ErrStockNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan stock: %w", err)
	}
	return &st, nil
}

func (r *stockRepository) Create(ctx context.Context, stock *domain.Stock) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO stocks (symbol, name, current_price)
		VALUES ($1, $2, $3)
		RETURNING id, updated_at
	`, stock.Symbol, stock.Name, stock.CurrentPrice).Scan(&stock.ID, &stock.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", domain.ErrSymbolExists, stock.Symbol)
	}
	if err != nil {
		return fmt.Errorf("failed to insert stock: %w", err)
	}
	return nil
}

func (r *stockRepository) Update(ctx context.Context, stock *domain.Stock) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE stocks
		SET name = $2, current_price = $3, updated_at = NOW()
		WHERE id = $1
	`, stock.ID, stock.Name, stock.CurrentPrice)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrStockNotFound, stock.ID)
	}
	return nil
}

func (r *stockRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrStockNotFound, id)
	}
	return nil
}
