package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mockstock/server/internal/domain"
)

// Service manages the tradable stock catalog. Catalog writes are an
// operational concern and run outside the trade engine's transactions.
type Service struct {
	stocks domain.StockRepository
}

func NewService(stocks domain.StockRepository) *Service {
	return &Service{stocks: stocks}
}

func (s *Service) List(ctx context.Context) ([]*domain.Stock, error) {
	return s.stocks.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Stock, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: id %d", domain.ErrStockNotFound, id)
	}
	return s.stocks.GetByID(ctx, id)
}

// Create lists a new stock. Symbols are stored upper-case.
func (s *Service) Create(ctx context.Context, symbol, name string, price decimal.Decimal) (*domain.Stock, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	name = strings.TrimSpace(name)
	if symbol == "" || name == "" {
		return nil, errors.New("symbol and name are required")
	}
	if price.IsNegative() {
		return nil, errors.New("currentPrice must not be negative")
	}

	stock := &domain.Stock{Symbol: symbol, Name: name, CurrentPrice: price}
	if err := s.stocks.Create(ctx, stock); err != nil {
		return nil, err
	}
	return stock, nil
}

// Update replaces a stock's name and/or price. A nil price keeps the current
// one, mirroring the partial-update behavior of the original API.
func (s *Service) Update(ctx context.Context, id int64, name string, price *decimal.Decimal) (*domain.Stock, error) {
	stock, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		stock.Name = name
	}
	if price != nil {
		if price.IsNegative() {
			return nil, errors.New("currentPrice must not be negative")
		}
		stock.CurrentPrice = *price
	}

	if err := s.stocks.Update(ctx, stock); err != nil {
		return nil, err
	}
	return stock, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: id %d", domain.ErrStockNotFound, id)
	}
	return s.stocks.Delete(ctx, id)
}
