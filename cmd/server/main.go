package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"stocktracker/internal/cache"
	"stocktracker/internal/config"
	"stocktracker/internal/database"
	"stocktracker/internal/handlers"
	"stocktracker/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to a .toml or .yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := cfg.NewLogger()
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := initDB(ctx, cfg.Database)
	if err != nil {
		logger.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	r := database.New(db, logger)
	if err := r.Migrate(ctx); err != nil {
		logger.Fatalf("migrate: %v", err)
	}

	var pc service.PriceCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.New(ctx, cache.Config{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			TLSEnabled: cfg.Redis.TLSEnabled,
			TTL:        2 * cfg.PriceUpdateInterval(),
		})
		if err != nil {
			logger.Warnf("redis unavailable, serving prices from the database only: %v", err)
		} else {
			defer rc.Close()
			pc = rc
		}
	}

	var priceSvc service.PriceProvider
	if cfg.Quotes.APIKey != "" {
		priceSvc = service.NewQuotePriceService(r, pc, cfg.Quotes.BaseURL, cfg.Quotes.APIKey, logger)
		logger.Info("using Alpha Vantage quotes")
	} else {
		priceSvc = service.NewSimulatedPriceService(r, pc, logger)
		logger.Info("no quote API key configured, using simulated prices")
	}

	_ = r.EnsureStockExists(ctx, "AAPL", "Apple Inc.")
	_ = r.EnsureStockExists(ctx, "MSFT", "Microsoft Corporation")
	_ = r.EnsureStockExists(ctx, "GOOGL", "Alphabet Inc.")

	h := handlers.NewHandler(r, priceSvc, logger)
	srv := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: h.Router(handlers.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			APIKey:         cfg.Server.APIKey,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	priceSvc.Start(ctx, cfg.PriceUpdateInterval())
	g.Go(func() error {
		logger.Infof("server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("server: %v", err)
	}
	logger.Info("server stopped")
}

func initDB(ctx context.Context, c config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open(c.Driver, c.DSN)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(c.MaxIdleConns)
	return db, nil
}
