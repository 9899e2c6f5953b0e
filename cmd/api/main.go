package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paper-trader/internal/auth"
	"paper-trader/internal/config"
	"paper-trader/internal/db"
	"paper-trader/internal/engine"
	"paper-trader/internal/httpserver"
	"paper-trader/internal/marketdata"
	"paper-trader/internal/portfolio"
	"paper-trader/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	startingCash, err := decimal.NewFromString(cfg.StartingCash)
	if err != nil {
		logger.Fatal("bad STARTING_CASH", zap.Error(err))
	}
	commission, err := decimal.NewFromString(cfg.Commission)
	if err != nil {
		logger.Fatal("bad COMMISSION", zap.Error(err))
	}
	if err := db.Migrate(ctx, pool, startingCash, commission, cfg.GameDurationDays); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	st := store.NewPostgres(pool)
	settings, err := st.GetSettings(ctx)
	if err != nil {
		logger.Fatal("load game settings", zap.Error(err))
	}

	var oracle marketdata.Oracle = marketdata.NewClient(cfg.QuoteBaseURL)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		oracle = marketdata.NewRedisCache(oracle, rdb, cfg.QuoteTTL)
	}
	oracle = marketdata.NewCache(oracle, cfg.QuoteTTL)

	bus := marketdata.NewBus()
	authSvc := auth.NewService(st, *settings, cfg.JWTIssuer, []byte(cfg.JWTSecret), cfg.JWTTTL)
	engineSvc := engine.NewService(st, *settings, bus, logger)
	portfolioSvc := portfolio.NewService(st, oracle, logger)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandler:      auth.NewHandler(authSvc),
		OrderHandler:     engine.NewHandler(engineSvc, oracle),
		PortfolioHandler: portfolio.NewHandler(portfolioSvc),
		MarketHandler:    marketdata.NewHandler(oracle),
		AuthService:      authSvc,
		WSHandler:        httpserver.NewWSHandler(bus, authSvc, cfg.WebSocketOrigin),
		Logger:           logger,
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	logger.Info("server listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("starting_cash", settings.StartingCash.String()),
		zap.String("commission", settings.Commission.String()),
	)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server", zap.Error(err))
	}
}
