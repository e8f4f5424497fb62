package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"stocktracker/internal/database"
	"stocktracker/internal/models"
)

type PortfolioService struct {
	repo   *database.Repo
	prices PriceProvider
	log    *logrus.Logger
}

func NewPortfolioService(r *database.Repo, p PriceProvider, log *logrus.Logger) *PortfolioService {
	return &PortfolioService{repo: r, prices: p, log: log}
}

// Snapshot returns the holdings of username keyed by symbol, each priced at
// the latest quote. A symbol that cannot be priced reports 0.
func (s *PortfolioService) Snapshot(ctx context.Context, username string) (map[string]models.Stock, error) {
	holdings, err := s.repo.GetHoldings(ctx, username)
	if err != nil {
		return nil, err
	}
	res := make(map[string]models.Stock, len(holdings))
	for _, h := range holdings {
		st := models.Stock{
			Symbol:      h.Symbol,
			Name:        h.Name,
			Quantity:    h.Quantity,
			AvgBuyPrice: h.PurchasePrice,
		}
		if price, _, err := s.prices.GetPrice(ctx, h.Symbol); err != nil {
			s.log.Warnf("no price for symbol %s: %v", h.Symbol, err)
		} else {
			st.CurrentPrice = price.InexactFloat64()
		}
		res[h.Symbol] = st
	}
	return res, nil
}

func (s *PortfolioService) Add(ctx context.Context, username string, st models.Stock) (database.Holding, error) {
	if err := s.repo.EnsureStockExists(ctx, st.Symbol, stockName(st)); err != nil {
		s.log.Warnf("ensure stock %s: %v", st.Symbol, err)
	}
	return s.repo.AddStock(ctx, username, st.Symbol, st.Quantity, st.AvgBuyPrice)
}

func (s *PortfolioService) Sell(ctx context.Context, username string, st models.Stock) (database.Holding, error) {
	return s.repo.SellStock(ctx, username, st.Symbol, st.Quantity)
}

func stockName(st models.Stock) string {
	if st.Name != "" {
		return st.Name
	}
	return st.Symbol
}
