package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid " + name})
		return 0, false
	}
	return id, true
}

// GetUserHoldings handles GET /api/users/:userId/holdings. An empty portfolio
// is not an error; it returns an explanatory message with an empty array.
func (h *Handler) GetUserHoldings(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	holdings, err := h.portfolio.Holdings(c.Request.Context(), userID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": err.Error()})
		return
	}

	if len(holdings) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "no holdings", "holdings": holdings})
		return
	}
	c.JSON(http.StatusOK, holdings)
}

// GetUserBalance handles GET /api/users/:userId/balance.
func (h *Handler) GetUserBalance(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	user, err := h.portfolio.Balance(c.Request.Context(), userID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balance": user.Balance,
		"name":    user.Name,
		"email":   user.Email,
	})
}

// GetTradeHistory handles GET /api/users/:userId/trades.
func (h *Handler) GetTradeHistory(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	trades, err := h.portfolio.History(c.Request.Context(), userID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trades": trades, "count": len(trades)})
}
