package marketdata

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Poller refreshes the cache on a fixed interval until the context is
// canceled. Failed refreshes are logged and retried on the next tick; there
// is deliberately no backoff.
type Poller struct {
	cache    *Cache
	interval time.Duration
	log      *logrus.Logger
}

func NewPoller(cache *Cache, interval time.Duration, log *logrus.Logger) *Poller {
	return &Poller{cache: cache, interval: interval, log: log}
}

// Run blocks until ctx is canceled. An immediate refresh warms the cache
// before the first tick.
func (p *Poller) Run(ctx context.Context) {
	if err := p.cache.Refresh(ctx); err != nil {
		p.log.WithError(err).Warn("initial market data refresh failed")
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("market data poller stopped")
			return
		case <-ticker.C:
			if err := p.cache.Refresh(ctx); err != nil {
				p.log.WithError(err).Warn("market data refresh failed")
			}
		}
	}
}
