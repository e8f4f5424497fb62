package service

import (
	"context"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"stocktracker/internal/database"
)

// SimulatedPriceService invents prices between 50 and 5000. It stands in for
// the quote source when no API key is configured.
type SimulatedPriceService struct {
	quoteStore
}

func NewSimulatedPriceService(r *database.Repo, cache PriceCache, log *logrus.Logger) *SimulatedPriceService {
	p := &SimulatedPriceService{}
	p.quoteStore = quoteStore{repo: r, cache: cache, log: log, fetch: randomPrice, now: time.Now}
	return p
}

func randomPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return decimal.NewFromFloat(50 + rand.Float64()*(5000-50)).Round(2), nil
}
