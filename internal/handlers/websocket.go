package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the browser client is served from another origin in dev
	},
}

// PriceUpdate is one websocket frame: the catalog prices at send time.
type PriceUpdate struct {
	Prices    map[string]decimal.Decimal `json:"prices"`
	Timestamp time.Time                  `json:"timestamp"`
}

// StreamPrices handles GET /ws/prices. Each connection gets its own ticker
// and receives the current catalog prices once per second until it drops.
func (h *Handler) StreamPrices(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.log.Info("price stream client connected")

	// Read pump. No client frames are expected, but reading is what surfaces
	// close frames, so a dropped client is noticed before the next write.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			h.log.Info("price stream client disconnected")
			return
		case <-ticker.C:
			stocks, err := h.catalog.List(ctx)
			if err != nil {
				h.log.WithError(err).Warn("price stream catalog read failed")
				continue
			}

			update := PriceUpdate{
				Prices:    make(map[string]decimal.Decimal, len(stocks)),
				Timestamp: time.Now().UTC(),
			}
			for _, s := range stocks {
				update.Prices[s.Symbol] = s.CurrentPrice
			}

			if err := conn.WriteJSON(update); err != nil {
				h.log.WithError(err).Info("price stream client disconnected")
				return
			}
		}
	}
}
