package marketdata

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoData means no refresh has succeeded yet.
var ErrNoData = errors.New("no market data available")

// Fetcher is what the cache needs from the API client.
type Fetcher interface {
	FetchQuotes(ctx context.Context, code string) ([]Quote, error)
}

// Snapshot is the cached view of the last successful fetch.
type Snapshot struct {
	Quotes    []Quote   `json:"quotes"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Cache holds the latest market data snapshot. Refresh replaces the whole
// snapshot atomically; readers keep seeing the previous one until a fetch
// succeeds, so a failing upstream never wipes served data.
type Cache struct {
	fetcher Fetcher
	codes   []string

	mu      sync.RWMutex
	snap    *Snapshot
	lastErr error
}

func NewCache(fetcher Fetcher, codes []string) *Cache {
	return &Cache{fetcher: fetcher, codes: codes}
}

// Refresh fetches quotes for every configured code and swaps the snapshot in.
func (c *Cache) Refresh(ctx context.Context) error {
	quotes := make([]Quote, 0)
	for _, code := range c.codes {
		qs, err := c.fetcher.FetchQuotes(ctx, code)
		if err != nil {
			c.mu.Lock()
			c.lastErr = err
			c.mu.Unlock()
			return err
		}
		quotes = append(quotes, qs...)
	}

	c.mu.Lock()
	c.snap = &Snapshot{Quotes: quotes, FetchedAt: time.Now().UTC()}
	c.lastErr = nil
	c.mu.Unlock()
	return nil
}

// Snapshot returns the last successful snapshot. Before the first successful
// refresh it returns the last fetch error, or ErrNoData if none ran yet.
func (c *Cache) Snapshot() (*Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snap == nil {
		if c.lastErr != nil {
			return nil, c.lastErr
		}
		return nil, ErrNoData
	}
	return c.snap, nil
}
