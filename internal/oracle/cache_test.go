package oracle_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictperp/internal/clock"
	"predictperp/internal/oracle"
)

func TestCache_ServesStaleWithinTTL(t *testing.T) {
	mem := oracle.NewMemory(decimal.NewFromFloat(0.5))
	now := time.Unix(1000, 0)
	ck := &stepClock{at: now}
	cache := oracle.NewCache(mem, 10*time.Second, ck)

	price, err := cache.GetOraclePrice(context.Background())
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(0.5)))

	mem.SetOraclePrice(decimal.NewFromFloat(0.9))
	ck.at = now.Add(5 * time.Second)

	price, err = cache.GetOraclePrice(context.Background())
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(0.5)), "expected cached value within TTL, got %s", price.String())

	ck.at = now.Add(11 * time.Second)
	price, err = cache.GetOraclePrice(context.Background())
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(0.9)), "expected refreshed value past TTL, got %s", price.String())
}

type stepClock struct{ at time.Time }

func (s *stepClock) Now() time.Time { return s.at }

var _ clock.Clock = (*stepClock)(nil)
