package engine_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictperp/internal/book"
	"predictperp/internal/clock"
	"predictperp/internal/engine"
	"predictperp/internal/oracle"
	"predictperp/internal/position"
	"predictperp/internal/settlement"
	"predictperp/internal/side"
	"predictperp/internal/workerpool"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func newTestEngine(t *testing.T) (*engine.Engine, *settlement.Memory) {
	t.Helper()
	settle := settlement.NewMemory(d("0.5"))
	orcl := oracle.NewMemory(d("0.5"))
	pool := workerpool.New(1)
	pool.Start(context.Background())
	t.Cleanup(func() { _ = pool.Stop() })
	e := engine.Build("BTC", settle, orcl, clock.Real{}, pool)
	return e, settle
}

// Scenario 3: a market BUY sweeping two ask levels opens exactly one
// taker position at the volume-weighted average price.
func TestEngine_MarketBuySweepsTwoLevelsOpensOnePosition(t *testing.T) {
	e, settle := newTestEngine(t)

	_, err := e.SubmitLimitOrder("makerA", side.Sell, d("0.40"), d("1"), 1, d("1"))
	require.NoError(t, err)
	_, err = e.SubmitLimitOrder("makerB", side.Sell, d("0.45"), d("2"), 1, d("1"))
	require.NoError(t, err)

	fills, err := e.SubmitMarketOrder("buyer", side.Buy, d("3"), 5, d("200"))
	require.NoError(t, err)
	require.Len(t, fills, 2)

	bids, asks := e.Snapshot()
	assert.Empty(t, bids)
	assert.Empty(t, asks)

	positions := e.Positions.ListPositions("buyer")
	require.Len(t, positions, 1)
	assert.Equal(t, position.StatusOpen, positions[0].Status)
	assert.Equal(t, side.Buy, positions[0].Side)
	assert.True(t, positions[0].Quantity.Equal(d("3")))

	// (0.40*1 + 0.45*2) / 3 = 0.4333...
	expectedAvg := d("0.40").Mul(d("1")).Add(d("0.45").Mul(d("2"))).Div(d("3"))
	assert.True(t, positions[0].EntryPrice.Equal(expectedAvg), "got %s", positions[0].EntryPrice.String())

	// Settlement emission runs on the worker pool, off the matching
	// path; asserting its count here would be a timing-dependent test,
	// so only the position-manager state is checked synchronously.
	_ = settle
}

// Scenario 4: a market SELL closes an existing BUY position (settlement
// calls are not counted here). Per spec §8 scenario 4, it is the
// taker (the seller) who must already hold the OPEN BUY position being
// closed — the resting maker on the other side of the book has no
// opposite position and so opens a fresh OPEN BUY position of its own,
// mirroring both the engine's dispositionFill (engine.go:93-122) and
// the original_source matching_engine.py maker branch.
func TestEngine_MarketSellClosesExistingPosition(t *testing.T) {
	e, _ := newTestEngine(t)

	e.Positions.RegisterAccount("seller")
	_, err := e.Positions.CreatePosition("seller", side.Buy, d("0.55"), d("1.5"), 1, d("1"))
	require.NoError(t, err)

	_, err = e.SubmitLimitOrder("maker", side.Buy, d("0.55"), d("1.5"), 1, d("1"))
	require.NoError(t, err)

	fills, err := e.SubmitMarketOrder("seller", side.Sell, d("1.5"), 5, d("200"))
	require.NoError(t, err)
	require.Len(t, fills, 1)

	sellerPositions := e.Positions.ListPositions("seller")
	require.Len(t, sellerPositions, 1)
	assert.Equal(t, position.StatusClosed, sellerPositions[0].Status)

	makerPositions := e.Positions.ListPositions("maker")
	require.Len(t, makerPositions, 1)
	assert.Equal(t, position.StatusOpen, makerPositions[0].Status)
	assert.Equal(t, side.Buy, makerPositions[0].Side)
}
