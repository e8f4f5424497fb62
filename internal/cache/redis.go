// Package cache keeps the latest stock quotes in Redis so every server
// instance shares them.
package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var ErrMiss = errors.New("cache miss")

type Config struct {
	Addr       string
	Password   string
	DB         int
	TLSEnabled bool
	TTL        time.Duration
}

// PriceCache stores each quote as a hash at "price:{symbol}" with the fields
// "price" and "ts" (unix nanoseconds).
type PriceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(ctx context.Context, cfg Config) (*PriceCache, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &PriceCache{rdb: rdb, ttl: cfg.TTL}, nil
}

func priceKey(symbol string) string { return "price:" + symbol }

func (c *PriceCache) SetPrice(ctx context.Context, symbol string, price decimal.Decimal, ts time.Time) error {
	key := priceKey(symbol)
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"price": price.String(),
		"ts":    strconv.FormatInt(ts.UnixNano(), 10),
	})
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set price %s: %w", symbol, err)
	}
	return nil
}

// GetPrice returns ErrMiss when nothing is cached for symbol.
func (c *PriceCache) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	vals, err := c.rdb.HGetAll(ctx, priceKey(symbol)).Result()
	if err != nil {
		return decimal.Zero, time.Time{}, fmt.Errorf("redis: get price %s: %w", symbol, err)
	}
	priceStr, ok := vals["price"]
	if !ok {
		return decimal.Zero, time.Time{}, ErrMiss
	}
	tsStr, ok := vals["ts"]
	if !ok {
		return decimal.Zero, time.Time{}, ErrMiss
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return decimal.Zero, time.Time{}, fmt.Errorf("redis: parse price %s: %w", symbol, err)
	}
	ns, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return decimal.Zero, time.Time{}, fmt.Errorf("redis: parse ts %s: %w", symbol, err)
	}
	return price, time.Unix(0, ns).UTC(), nil
}

func (c *PriceCache) Close() error {
	return c.rdb.Close()
}
