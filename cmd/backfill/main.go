package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"stocktracker/internal/config"
	"stocktracker/internal/database"
	"stocktracker/internal/service"
)

// seedPrices are the backfilled quotes, the newest one "now".
var seedPrices = map[string]string{
	"AAPL":  "189.25",
	"MSFT":  "415.10",
	"GOOGL": "141.80",
}

func main() {
	configPath := flag.String("config", "", "path to a .toml or .yaml config file")
	username := flag.String("user", "demo", "demo account to create")
	password := flag.String("password", "demo123", "password for the demo account")
	days := flag.Int("days", 7, "days of daily price history to write")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := cfg.NewLogger()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	db, err := sqlx.Connect(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	r := database.New(db, log)
	if err := r.Migrate(ctx); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	now := time.Now().UTC()
	for sym, p := range seedPrices {
		base := decimal.RequireFromString(p)
		if err := r.EnsureStockExists(ctx, sym, sym); err != nil {
			log.Warnf("could not register %s: %v", sym, err)
		}
		for d := *days; d >= 0; d-- {
			// drift the older quotes down by 0.5% per day
			price := base.Mul(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(0.005).Mul(decimal.NewFromInt(int64(d))))).Round(2)
			if err := r.UpsertPrice(ctx, sym, price, now.AddDate(0, 0, -d)); err != nil {
				log.Warnf("could not insert price for %s: %v", sym, err)
			}
		}
	}

	auth := service.NewAuthService(r, log)
	if _, err := auth.Signup(ctx, *username, *password); err != nil && !errors.Is(err, database.ErrUsernameTaken) {
		log.Fatalf("create %s: %v", *username, err)
	}
	holdings, err := r.GetHoldings(ctx, *username)
	if err != nil {
		log.Fatalf("read holdings: %v", err)
	}
	if len(holdings) == 0 {
		if _, err := r.AddStock(ctx, *username, "MSFT", 5, 400); err != nil {
			log.Warnf("could not seed MSFT: %v", err)
		}
		if _, err := r.AddStock(ctx, *username, "AAPL", 10, 175.5); err != nil {
			log.Warnf("could not seed AAPL: %v", err)
		}
	}

	fmt.Printf("Backfilled %d days of prices and seeded %q\n", *days+1, *username)
}
