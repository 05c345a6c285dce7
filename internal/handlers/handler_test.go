package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockstock/server/internal/adapter/repository/memory"
	"github.com/mockstock/server/internal/marketdata"
	"github.com/mockstock/server/internal/usecase/catalog"
	"github.com/mockstock/server/internal/usecase/portfolio"
	"github.com/mockstock/server/internal/usecase/trade"
)

type stubFetcher struct {
	quotes []marketdata.Quote
	err    error
}

func (s *stubFetcher) FetchQuotes(ctx context.Context, code string) ([]marketdata.Quote, error) {
	return s.quotes, s.err
}

type testEnv struct {
	router *gin.Engine
	store  *memory.Store
	market *marketdata.Cache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	log := logrus.New()
	log.SetOutput(io.Discard)

	market := marketdata.NewCache(&stubFetcher{quotes: []marketdata.Quote{{ShortCode: "005930"}}}, []string{"005930"})

	h := New(
		trade.NewService(store, store, store, store, log),
		portfolio.NewService(store, store),
		catalog.NewService(store),
		market,
		log,
	)
	return &testEnv{router: NewRouter(h), store: store, market: market}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestBuyEndpoint_Success(t *testing.T) {
	env := newTestEnv(t)
	userID := env.store.SeedUser("alice", "alice@test.com", decimal.NewFromInt(10000))
	stockID := env.store.SeedStock("AAPL", "Apple Inc.", decimal.NewFromInt(100))

	rec := env.do(t, http.MethodPost, "/api/transactions/buy", TradeRequest{UserID: userID, StockID: stockID, Quantity: 50})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp TradeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.User)
	assert.True(t, resp.User.Balance.Equal(decimal.NewFromInt(5000)))
}

func TestBuyEndpoint_InsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	userID := env.store.SeedUser("bob", "bob@test.com", decimal.NewFromInt(100))
	stockID := env.store.SeedStock("AAPL", "Apple Inc.", decimal.NewFromInt(150))

	rec := env.do(t, http.MethodPost, "/api/transactions/buy", TradeRequest{UserID: userID, StockID: stockID, Quantity: 10})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp TradeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "insufficient funds")
}

func TestBuyEndpoint_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	stockID := env.store.SeedStock("AAPL", "Apple Inc.", decimal.NewFromInt(150))

	rec := env.do(t, http.MethodPost, "/api/transactions/buy", TradeRequest{UserID: 999, StockID: stockID, Quantity: 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuyEndpoint_InvalidQuantity(t *testing.T) {
	env := newTestEnv(t)
	userID := env.store.SeedUser("alice", "alice@test.com", decimal.NewFromInt(10000))
	stockID := env.store.SeedStock("AAPL", "Apple Inc.", decimal.NewFromInt(100))

	rec := env.do(t, http.MethodPost, "/api/transactions/buy", TradeRequest{UserID: userID, StockID: stockID, Quantity: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSellEndpoint_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	userID := env.store.SeedUser("alice", "alice@test.com", decimal.NewFromInt(10000))
	stockID := env.store.SeedStock("AAPL", "Apple Inc.", decimal.NewFromInt(100))

	rec := env.do(t, http.MethodPost, "/api/transactions/buy", TradeRequest{UserID: userID, StockID: stockID, Quantity: 50})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/transactions/sell", TradeRequest{UserID: userID, StockID: stockID, Quantity: 60})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "overselling must be rejected")

	rec = env.do(t, http.MethodPost, "/api/transactions/sell", TradeRequest{UserID: userID, StockID: stockID, Quantity: 50})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TradeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.User.Balance.Equal(decimal.NewFromInt(10000)))

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/holdings", userID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "no holdings")
}

func TestHoldingsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	userID := env.store.SeedUser("alice", "alice@test.com", decimal.NewFromInt(10000))
	stockID := env.store.SeedStock("AAPL", "Apple Inc.", decimal.NewFromInt(100))

	rec := env.do(t, http.MethodPost, "/api/transactions/buy", TradeRequest{UserID: userID, StockID: stockID, Quantity: 3})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/holdings", userID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var holdings []struct {
		Quantity int64 `json:"quantity"`
		Stock    struct {
			Symbol string `json:"symbol"`
		} `json:"stock"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &holdings))
	require.Len(t, holdings, 1)
	assert.Equal(t, "AAPL", holdings[0].Stock.Symbol)
	assert.EqualValues(t, 3, holdings[0].Quantity)
}

func TestBalanceEndpoint(t *testing.T) {
	env := newTestEnv(t)
	userID := env.store.SeedUser("alice", "alice@test.com", decimal.RequireFromString("250.75"))

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/balance", userID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Balance decimal.Decimal `json:"balance"`
		Name    string          `json:"name"`
		Email   string          `json:"email"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Balance.Equal(decimal.RequireFromString("250.75")))
	assert.Equal(t, "alice", resp.Name)
	assert.Equal(t, "alice@test.com", resp.Email)
}

func TestBalanceEndpoint_NotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/users/404/balance", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStockEndpoints_CRUD(t *testing.T) {
	env := newTestEnv(t)
	price := decimal.NewFromInt(150)

	rec := env.do(t, http.MethodPost, "/api/stocks", StockRequest{Symbol: "aapl", Name: "Apple Inc.", CurrentPrice: &price})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID     int64  `json:"id"`
		Symbol string `json:"symbol"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "AAPL", created.Symbol)

	rec = env.do(t, http.MethodPost, "/api/stocks", StockRequest{Symbol: "AAPL", Name: "dup", CurrentPrice: &price})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/stocks/%d", created.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/stocks/%d", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/stocks/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarketEndpoint(t *testing.T) {
	env := newTestEnv(t)

	// Nothing cached yet.
	rec := env.do(t, http.MethodGet, "/api/market", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, env.market.Refresh(context.Background()))

	rec = env.do(t, http.MethodGet, "/api/market", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "005930")
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStreamPrices(t *testing.T) {
	env := newTestEnv(t)
	env.store.SeedStock("AAPL", "Apple Inc.", decimal.NewFromInt(100))

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/prices"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var update PriceUpdate
	require.NoError(t, conn.ReadJSON(&update))
	price, ok := update.Prices["AAPL"]
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromInt(100)))

	// A clean client close ends the stream; the server's read pump sees the
	// close frame without waiting for the next write to fail.
	require.NoError(t, conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
