package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mockstock/server/internal/domain"
	"github.com/mockstock/server/internal/marketdata"
	"github.com/mockstock/server/internal/usecase/catalog"
	"github.com/mockstock/server/internal/usecase/portfolio"
	"github.com/mockstock/server/internal/usecase/trade"
)

// Handler owns the HTTP boundary. Authentication and session handling live in
// the external auth collaborator; this API trusts the ids it is given.
type Handler struct {
	trades    *trade.Service
	portfolio *portfolio.Service
	catalog   *catalog.Service
	market    *marketdata.Cache
	log       *logrus.Logger
}

func New(trades *trade.Service, pf *portfolio.Service, cat *catalog.Service, market *marketdata.Cache, log *logrus.Logger) *Handler {
	return &Handler{
		trades:    trades,
		portfolio: pf,
		catalog:   cat,
		market:    market,
		log:       log,
	}
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.Default()

	api := router.Group("/api")
	{
		api.POST("/transactions/buy", h.BuyStock)
		api.POST("/transactions/sell", h.SellStock)

		api.GET("/users/:userId/holdings", h.GetUserHoldings)
		api.GET("/users/:userId/balance", h.GetUserBalance)
		api.GET("/users/:userId/trades", h.GetTradeHistory)

		api.GET("/stocks", h.ListStocks)
		api.GET("/stocks/:id", h.GetStock)
		api.POST("/stocks", h.CreateStock)
		api.PUT("/stocks/:id", h.UpdateStock)
		api.DELETE("/stocks/:id", h.DeleteStock)

		api.GET("/market", h.GetMarketData)
	}

	router.GET("/ws/prices", h.StreamPrices)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	return router
}

// statusFor maps domain error kinds to HTTP status codes. Unknown errors are
// server faults.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrStockNotFound),
		errors.Is(err, domain.ErrHoldingNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidOrder),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientHoldings),
		errors.Is(err, domain.ErrTradeConflict):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSymbolExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
