package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mockstock/server/internal/domain"
)

// TradeRequest is the body of buy and sell orders. Quantity positivity and id
// resolution are the trade engine's checks, not binding rules, so the client
// gets the domain's error message instead of a binding dump.
type TradeRequest struct {
	UserID   int64 `json:"userId"`
	StockID  int64 `json:"stockId"`
	Quantity int64 `json:"quantity"`
}

// TradeResponse is the envelope of the original API: success flag, updated
// user and a human-readable message.
type TradeResponse struct {
	Success bool          `json:"success"`
	User    *domain.User  `json:"user,omitempty"`
	Trade   *domain.Trade `json:"trade,omitempty"`
	Message string        `json:"message"`
}

// BuyStock handles POST /api/transactions/buy.
func (h *Handler) BuyStock(c *gin.Context) {
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, TradeResponse{Success: false, Message: err.Error()})
		return
	}

	res, err := h.trades.Buy(c.Request.Context(), req.UserID, req.StockID, req.Quantity)
	if err != nil {
		h.log.WithError(err).WithField("userId", req.UserID).Warn("buy rejected")
		c.JSON(statusFor(err), TradeResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, TradeResponse{
		Success: true,
		User:    res.User,
		Trade:   res.Trade,
		Message: "purchase completed successfully",
	})
}

// SellStock handles POST /api/transactions/sell.
func (h *Handler) SellStock(c *gin.Context) {
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, TradeResponse{Success: false, Message: err.Error()})
		return
	}

	res, err := h.trades.Sell(c.Request.Context(), req.UserID, req.StockID, req.Quantity)
	if err != nil {
		h.log.WithError(err).WithField("userId", req.UserID).Warn("sell rejected")
		c.JSON(statusFor(err), TradeResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, TradeResponse{
		Success: true,
		User:    res.User,
		Trade:   res.Trade,
		Message: "sale completed successfully",
	})
}
