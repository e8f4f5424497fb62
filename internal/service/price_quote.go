package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"stocktracker/internal/database"
)

const (
	DefaultQuoteURL = "https://www.alphavantage.co/query"
	quotePricePath  = `$["Global Quote"]["05. price"]`
)

// QuotePriceService prices symbols from an Alpha Vantage GLOBAL_QUOTE
// endpoint.
type QuotePriceService struct {
	quoteStore
	http    *http.Client
	baseURL string
	apiKey  string
}

func NewQuotePriceService(r *database.Repo, cache PriceCache, baseURL, apiKey string, log *logrus.Logger) *QuotePriceService {
	if baseURL == "" {
		baseURL = DefaultQuoteURL
	}
	p := &QuotePriceService{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
	p.quoteStore = quoteStore{repo: r, cache: cache, log: log, fetch: p.fetchQuote, now: time.Now}
	return p
}

func (p *QuotePriceService) fetchQuote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", symbol)
	q.Set("apikey", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, err
	}
	p.log.Debugf("fetching live price for %s", symbol)
	resp, err := p.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("quote %s: %w", symbol, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		p.log.Errorf("quote request for %s failed with status %d", symbol, resp.StatusCode)
		return decimal.Zero, fmt.Errorf("quote %s: status %d", symbol, resp.StatusCode)
	}

	var body interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("quote %s: decode: %w", symbol, err)
	}
	return parseGlobalQuote(body)
}

func parseGlobalQuote(body interface{}) (decimal.Decimal, error) {
	v, err := jsonpath.Get(quotePricePath, body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrNoPrice, err)
	}
	s, ok := v.(string)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: price is %T", ErrNoPrice, v)
	}
	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrNoPrice, err)
	}
	return price, nil
}
