package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// StockRequest is the body for catalog create/update. CurrentPrice is a
// pointer so an update can leave the price untouched.
type StockRequest struct {
	Symbol       string           `json:"symbol"`
	Name         string           `json:"name"`
	CurrentPrice *decimal.Decimal `json:"currentPrice"`
}

// ListStocks handles GET /api/stocks.
func (h *Handler) ListStocks(c *gin.Context) {
	stocks, err := h.catalog.List(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stocks)
}

// GetStock handles GET /api/stocks/:id.
func (h *Handler) GetStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	stock, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stock)
}

// CreateStock handles POST /api/stocks.
func (h *Handler) CreateStock(c *gin.Context) {
	var req StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if req.CurrentPrice == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "symbol, name and currentPrice are required"})
		return
	}

	stock, err := h.catalog.Create(c.Request.Context(), req.Symbol, req.Name, *req.CurrentPrice)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, stock)
}

// UpdateStock handles PUT /api/stocks/:id.
func (h *Handler) UpdateStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	stock, err := h.catalog.Update(c.Request.Context(), id, req.Name, req.CurrentPrice)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stock)
}

// DeleteStock handles DELETE /api/stocks/:id.
func (h *Handler) DeleteStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		c.JSON(statusFor(err), gin.H{"message": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetMarketData handles GET /api/market, serving the cached snapshot of the
// external market-data feed.
func (h *Handler) GetMarketData(c *gin.Context) {
	snap, err := h.market.Snapshot()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Service Unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}
