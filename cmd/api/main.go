package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/mockstock/server/internal/adapter/repository/postgres"
	"github.com/mockstock/server/internal/config"
	"github.com/mockstock/server/internal/handlers"
	"github.com/mockstock/server/internal/marketdata"
	"github.com/mockstock/server/internal/usecase/catalog"
	"github.com/mockstock/server/internal/usecase/portfolio"
	"github.com/mockstock/server/internal/usecase/trade"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using environment variables")
	}
	cfg := config.Load()

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(cfg.DBConnString())
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	log.Info("database connected")

	// Repositories
	uow := postgres.NewUnitOfWork(db)
	accounts := postgres.NewAccountStore(db)
	oracle := postgres.NewPriceOracle(db)
	ledger := postgres.NewTradeLedger(db)
	stocks := postgres.NewStockRepository(db)

	// Services
	tradeSvc := trade.NewService(uow, accounts, oracle, ledger, log)
	portfolioSvc := portfolio.NewService(accounts, ledger)
	catalogSvc := catalog.NewService(stocks)

	// Market data poller
	marketClient := marketdata.NewClient(cfg.MarketAPIURL, cfg.MarketServiceKey, log)
	marketCache := marketdata.NewCache(marketClient, cfg.MarketStockCodes)
	poller := marketdata.NewPoller(marketCache, cfg.MarketPollInterval, log)

	pollCtx, stopPoller := context.WithCancel(context.Background())
	go poller.Run(pollCtx)

	handler := handlers.New(tradeSvc, portfolioSvc, catalogSvc, marketCache, log)
	router := handlers.NewRouter(handler)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	waitForShutdown(srv, stopPoller, log)
}

// waitForShutdown blocks until SIGTERM/SIGINT, then drains in-flight requests.
func waitForShutdown(srv *http.Server, stopPoller context.CancelFunc, log *logrus.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.WithField("signal", sig.String()).Info("shutting down")

	stopPoller()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
	log.Info("server stopped")
}
