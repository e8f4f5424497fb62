package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"stocktracker/internal/database"
)

var ErrNoPrice = errors.New("no price available")

// freshFor is how long a stored quote is served before asking the source
// again.
const freshFor = 15 * time.Minute

type PriceProvider interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error)
	Start(ctx context.Context, interval time.Duration)
}

// PriceCache is an optional fast store in front of price_history.
type PriceCache interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error)
	SetPrice(ctx context.Context, symbol string, price decimal.Decimal, ts time.Time) error
}

type fetchFunc func(ctx context.Context, symbol string) (decimal.Decimal, error)

// quoteStore serves recent quotes from the cache or price_history and falls
// back to fetch, recording whatever it fetched.
type quoteStore struct {
	repo  *database.Repo
	cache PriceCache
	log   *logrus.Logger
	fetch fetchFunc
	now   func() time.Time
}

func (s *quoteStore) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	if s.cache != nil {
		if p, ts, err := s.cache.GetPrice(ctx, symbol); err == nil && s.now().Sub(ts) < freshFor {
			return p, ts, nil
		}
	}
	if p, ts, err := s.repo.GetLatestPrice(ctx, symbol); err == nil && s.now().Sub(ts) < freshFor {
		s.remember(ctx, symbol, p, ts)
		return p, ts, nil
	}
	return s.refresh(ctx, symbol)
}

func (s *quoteStore) refresh(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	p, err := s.fetch(ctx, symbol)
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	if !p.IsPositive() {
		return decimal.Zero, time.Time{}, ErrNoPrice
	}
	ts := s.now().UTC()
	if err := s.repo.UpsertPrice(ctx, symbol, p, ts); err != nil {
		s.log.Warnf("store price for %s: %v", symbol, err)
	}
	s.remember(ctx, symbol, p, ts)
	return p, ts, nil
}

func (s *quoteStore) remember(ctx context.Context, symbol string, p decimal.Decimal, ts time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetPrice(ctx, symbol, p, ts); err != nil {
		s.log.Warnf("cache price for %s: %v", symbol, err)
	}
}

// Start re-quotes every known symbol on each tick until ctx is done.
func (s *quoteStore) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.log.Info("price updater stopping")
				return
			case <-ticker.C:
				s.refreshAll(ctx)
			}
		}
	}()
}

func (s *quoteStore) refreshAll(ctx context.Context) {
	symbols, err := s.repo.GetAllSymbols(ctx)
	if err != nil {
		s.log.Warnf("failed to fetch symbols: %v", err)
		return
	}
	for _, sym := range symbols {
		if _, _, err := s.refresh(ctx, sym); err != nil {
			s.log.Warnf("refresh price for %s: %v", sym, err)
		}
	}
}
