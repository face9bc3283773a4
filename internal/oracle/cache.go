package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"predictperp/internal/clock"
)

// Cache wraps a Port with a short TTL so repeated mark-price
// derivations during a burst of trading don't each pay an external
// round trip. spec.md §9 only calls out staleness on the mark price's
// last-trade branch; this bounds staleness on the oracle branch
// instead, since that is the one actually doing I/O.
type Cache struct {
	mu  sync.Mutex
	src Port
	ttl time.Duration
	clk clock.Clock

	price     decimal.Decimal
	fetchedAt time.Time
	valid     bool
}

// NewCache wraps src with a cache that treats a read as fresh for ttl.
func NewCache(src Port, ttl time.Duration, clk clock.Clock) *Cache {
	return &Cache{src: src, ttl: ttl, clk: clk}
}

func (c *Cache) GetOraclePrice(ctx context.Context) (decimal.Decimal, error) {
	c.mu.Lock()
	if c.valid && c.clk.Now().Sub(c.fetchedAt) < c.ttl {
		price := c.price
		c.mu.Unlock()
		return price, nil
	}
	c.mu.Unlock()

	price, err := c.src.GetOraclePrice(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	c.mu.Lock()
	c.price = price
	c.fetchedAt = c.clk.Now()
	c.valid = true
	c.mu.Unlock()

	return price, nil
}

// FundingRatePerSecond is passed straight through: funding reads happen
// on the keeper's own slow cadence and don't need caching.
func (c *Cache) FundingRatePerSecond(ctx context.Context) (decimal.Decimal, error) {
	return c.src.FundingRatePerSecond(ctx)
}

var _ Port = (*Cache)(nil)
