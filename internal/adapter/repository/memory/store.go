// Package memory is an in-memory implementation of the domain stores, used by
// unit tests and local experiments. A single mutex held for the whole unit of
// work makes transactions fully serialized, which satisfies the same
// read-check-write guarantee the postgres adapter gets from row locks.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mockstock/server/internal/domain"
)

type holdingKey struct {
	userID  int64
	stockID int64
}

// Store holds all state behind one mutex and implements domain.UnitOfWork,
// domain.AccountStore, domain.PriceOracle, domain.TradeLedger and
// domain.StockRepository.
type Store struct {
	mu       sync.Mutex
	users    map[int64]*domain.User
	stocks   map[int64]*domain.Stock
	holdings map[holdingKey]*domain.Holding
	trades   []*domain.Trade

	nextUserID    int64
	nextStockID   int64
	nextHoldingID int64
}

type memTx struct {
	store *Store
}

func NewStore() *Store {
	return &Store{
		users:    make(map[int64]*domain.User),
		stocks:   make(map[int64]*domain.Stock),
		holdings: make(map[holdingKey]*domain.Holding),
	}
}

// Do runs fn under the store mutex and restores the pre-transaction state if
// fn fails, so a failed trade leaves nothing behind.
func (s *Store) Do(ctx context.Context, fn func(tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&memTx{store: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type stateSnapshot struct {
	users    map[int64]*domain.User
	holdings map[holdingKey]*domain.Holding
	trades   []*domain.Trade
	nextHID  int64
}

func (s *Store) snapshot() stateSnapshot {
	snap := stateSnapshot{
		users:    make(map[int64]*domain.User, len(s.users)),
		holdings: make(map[holdingKey]*domain.Holding, len(s.holdings)),
		trades:   append([]*domain.Trade(nil), s.trades...),
		nextHID:  s.nextHoldingID,
	}
	for id, u := range s.users {
		cp := *u
		snap.users[id] = &cp
	}
	for k, h := range s.holdings {
		cp := *h
		snap.holdings[k] = &cp
	}
	return snap
}

func (s *Store) restore(snap stateSnapshot) {
	s.users = snap.users
	s.holdings = snap.holdings
	s.trades = snap.trades
	s.nextHoldingID = snap.nextHID
}

func (s *Store) unwrap(tx domain.Tx) (*memTx, error) {
	mt, ok := tx.(*memTx)
	if !ok || mt.store != s {
		return nil, fmt.Errorf("memory: foreign transaction handle %T", tx)
	}
	return mt, nil
}

// SeedUser inserts a user and returns its ID. Test helper.
func (s *Store) SeedUser(name, email string, balance decimal.Decimal) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUserID++
	s.users[s.nextUserID] = &domain.User{
		ID:        s.nextUserID,
		Name:      name,
		Email:     email,
		Balance:   balance,
		CreatedAt: time.Now().UTC(),
	}
	return s.nextUserID
}

// SeedStock inserts a stock and returns its ID. Test helper.
func (s *Store) SeedStock(symbol, name string, price decimal.Decimal) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextStockID++
	s.stocks[s.nextStockID] = &domain.Stock{
		ID:           s.nextStockID,
		Symbol:       strings.ToUpper(symbol),
		Name:         name,
		CurrentPrice: price,
		UpdatedAt:    time.Now().UTC(),
	}
	return s.nextStockID
}

// --- domain.AccountStore ---

func (s *Store) GetUserForUpdate(ctx context.Context, tx domain.Tx, userID int64) (*domain.User, error) {
	if _, err := s.unwrap(tx); err != nil {
		return nil, err
	}
	return s.getUserLocked(userID)
}

func (s *Store) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getUserLocked(userID)
}

func (s *Store) getUserLocked(userID int64) (*domain.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", domain.ErrUserNotFound, userID)
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetHoldingForUpdate(ctx context.Context, tx domain.Tx, userID, stockID int64) (*domain.Holding, error) {
	if _, err := s.unwrap(tx); err != nil {
		return nil, err
	}
	h, ok := s.holdings[holdingKey{userID, stockID}]
	if !ok {
		return nil, nil
	}
	cp := *h
	return &cp, nil
}

func (s *Store) AdjustBalance(ctx context.Context, tx domain.Tx, userID int64, delta decimal.Decimal) (*domain.User, error) {
	if _, err := s.unwrap(tx); err != nil {
		return nil, err
	}
	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", domain.ErrUserNotFound, userID)
	}
	next := u.Balance.Add(delta)
	if next.IsNegative() {
		return nil, fmt.Errorf("%w: balance %s, needed %s", domain.ErrInsufficientFunds, u.Balance, delta.Neg())
	}
	u.Balance = next
	cp := *u
	return &cp, nil
}

func (s *Store) UpsertHolding(ctx context.Context, tx domain.Tx, userID, stockID int64, deltaQty int64) (int64, error) {
	if _, err := s.unwrap(tx); err != nil {
		return 0, err
	}
	key := holdingKey{userID, stockID}
	h, ok := s.holdings[key]
	if !ok {
		if deltaQty < 0 {
			return 0, fmt.Errorf("%w: no holding for stock %d", domain.ErrInsufficientHoldings, stockID)
		}
		if deltaQty == 0 {
			return 0, nil
		}
		s.nextHoldingID++
		s.holdings[key] = &domain.Holding{
			ID:        s.nextHoldingID,
			UserID:    userID,
			StockID:   stockID,
			Quantity:  deltaQty,
			UpdatedAt: time.Now().UTC(),
		}
		return deltaQty, nil
	}

	next := h.Quantity + deltaQty
	switch {
	case next < 0:
		return 0, fmt.Errorf("%w: holding %d shares, delta %d", domain.ErrInsufficientHoldings, h.Quantity, deltaQty)
	case next == 0:
		delete(s.holdings, key)
		return 0, nil
	default:
		h.Quantity = next
		h.UpdatedAt = time.Now().UTC()
		return next, nil
	}
}

func (s *Store) ListHoldings(ctx context.Context, userID int64) ([]*domain.HoldingWithStock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.HoldingWithStock, 0)
	for key, h := range s.holdings {
		if key.userID != userID {
			continue
		}
		stock, ok := s.stocks[key.stockID]
		if !ok {
			continue
		}
		out = append(out, &domain.HoldingWithStock{Holding: *h, Stock: *stock})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stock.Symbol < out[j].Stock.Symbol })
	return out, nil
}

// --- domain.PriceOracle ---

func (s *Store) GetStock(ctx context.Context, tx domain.Tx, stockID int64) (*domain.Stock, error) {
	if _, err := s.unwrap(tx); err != nil {
		return nil, err
	}
	return s.getStockLocked(stockID)
}

func (s *Store) getStockLocked(stockID int64) (*domain.Stock, error) {
	st, ok := s.stocks[stockID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", domain.ErrStockNotFound, stockID)
	}
	cp := *st
	return &cp, nil
}

// --- domain.TradeLedger ---

func (s *Store) Append(ctx context.Context, tx domain.Tx, trade *domain.Trade) error {
	if _, err := s.unwrap(tx); err != nil {
		return err
	}
	cp := *trade
	s.trades = append(s.trades, &cp)
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Trade, 0)
	for i := len(s.trades) - 1; i >= 0 && len(out) < limit; i-- {
		if s.trades[i].UserID == userID {
			cp := *s.trades[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- domain.StockRepository ---

func (s *Store) List(ctx context.Context) ([]*domain.Stock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Stock, 0, len(s.stocks))
	for _, st := range s.stocks {
		cp := *st
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Stock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getStockLocked(id)
}

func (s *Store) Create(ctx context.Context, stock *domain.Stock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.stocks {
		if st.Symbol == stock.Symbol {
			return fmt.Errorf("%w: %s", domain.ErrSymbolExists, stock.Symbol)
		}
	}
	s.nextStockID++
	stock.ID = s.nextStockID
	stock.UpdatedAt = time.Now().UTC()
	cp := *stock
	s.stocks[stock.ID] = &cp
	return nil
}

func (s *Store) Update(ctx context.Context, stock *domain.Stock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stocks[stock.ID]
	if !ok {
		return fmt.Errorf("%w: id %d", domain.ErrStockNotFound, stock.ID)
	}
	st.Name = stock.Name
	st.CurrentPrice = stock.CurrentPrice
	st.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stocks[id]; !ok {
		return fmt.Errorf("%w: id %d", domain.ErrStockNotFound, id)
	}
	delete(s.stocks, id)
	return nil
}
