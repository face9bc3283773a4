package position_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictperp/internal/clock"
	"predictperp/internal/position"
	"predictperp/internal/side"
	"predictperp/internal/tradelog"
)

type stubSettlement struct {
	liquidateCalls int
	liquidateErr   error
}

func (s *stubSettlement) OpenPosition(context.Context, string, decimal.Decimal, uint32, bool, decimal.Decimal) error {
	return nil
}
func (s *stubSettlement) ClosePosition(context.Context, string, decimal.Decimal) error { return nil }
func (s *stubSettlement) Liquidate(_ context.Context, _ string) error {
	s.liquidateCalls++
	return s.liquidateErr
}

type stubOracle struct {
	price decimal.Decimal
}

func (o *stubOracle) GetOraclePrice(context.Context) (decimal.Decimal, error) {
	return o.price, nil
}

type stubBook struct {
	bid, ask decimal.Decimal
	hasBid   bool
	hasAsk   bool
}

func (b *stubBook) BestBid() (decimal.Decimal, bool) { return b.bid, b.hasBid }
func (b *stubBook) BestAsk() (decimal.Decimal, bool) { return b.ask, b.hasAsk }

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func newManager(t *testing.T) (*position.Manager, *stubSettlement) {
	t.Helper()
	st := &stubSettlement{}
	oracle := &stubOracle{price: d("0.5")}
	book := &stubBook{}
	trades := tradelog.New("BTC")
	mgr := position.New("BTC", st, oracle, book, trades, clock.Fixed{At: time.Unix(0, 0)})
	return mgr, st
}

// Scenario 6: closing a profitable BUY position.
func TestClosePosition_ProfitBuy(t *testing.T) {
	mgr, _ := newManager(t)
	mgr.RegisterAccount("alice")

	pos, err := mgr.CreatePosition("alice", side.Buy, d("0.25"), d("2"), 2, d("500"))
	require.NoError(t, err)

	closed, err := mgr.ClosePosition("alice", pos.Quantity, d("0.375"))
	require.NoError(t, err)

	assert.True(t, closed.RealizedPnL.Equal(d("125")), "got %s", closed.RealizedPnL.String())
	assert.Equal(t, position.StatusClosed, closed.Status)
}

// Scenario 7: unrealized PnL at exactly -0.80 does not liquidate; at
// -0.82 it does. This test exercises the PnL computation only; the
// threshold decision itself lives in internal/risk.
func TestUpdateUnrealizedPnL_LiquidationBoundary(t *testing.T) {
	trades := tradelog.New("BTC")
	trades.Append(tradelog.Trade{Price: d("0.42"), Quantity: d("1")})
	bookView := &stubBook{}
	mgrAtThreshold := position.New("BTC", &stubSettlement{}, &stubOracle{price: d("0.42")}, bookView, trades, clock.Fixed{At: time.Unix(0, 0)})
	mgrAtThreshold.RegisterAccount("bob")
	posAtThreshold, err := mgrAtThreshold.CreatePosition("bob", side.Buy, d("0.50"), d("1"), 5, d("100"))
	require.NoError(t, err)

	pnl, err := mgrAtThreshold.UpdateUnrealizedPnL(context.Background(), posAtThreshold)
	require.NoError(t, err)
	assert.True(t, pnl.Equal(d("-80")), "got %s", pnl.String())
	ratio := pnl.Div(posAtThreshold.Margin)
	assert.True(t, ratio.Equal(d("-0.8")))

	tradesBreach := tradelog.New("BTC")
	tradesBreach.Append(tradelog.Trade{Price: d("0.418"), Quantity: d("1")})
	mgrBreach := position.New("BTC", &stubSettlement{}, &stubOracle{price: d("0.418")}, &stubBook{}, tradesBreach, clock.Fixed{At: time.Unix(0, 0)})
	mgrBreach.RegisterAccount("bob")
	posBreach, err := mgrBreach.CreatePosition("bob", side.Buy, d("0.50"), d("1"), 5, d("100"))
	require.NoError(t, err)

	pnlBreach, err := mgrBreach.UpdateUnrealizedPnL(context.Background(), posBreach)
	require.NoError(t, err)
	ratioBreach := pnlBreach.Div(posBreach.Margin)
	assert.True(t, ratioBreach.LessThan(d("-0.8")), "got ratio %s", ratioBreach.String())
}

func TestRegisterAccount_Idempotent(t *testing.T) {
	mgr, _ := newManager(t)
	mgr.RegisterAccount("carol")
	mgr.RegisterAccount("carol")
	mgr.RegisterAccount("carol")

	assert.Empty(t, mgr.ListPositions("carol"))
}

func TestLiquidatePosition_MarksOpenPositionsLiquidated(t *testing.T) {
	mgr, st := newManager(t)
	mgr.RegisterAccount("dave")
	_, err := mgr.CreatePosition("dave", side.Buy, d("0.5"), d("1"), 5, d("100"))
	require.NoError(t, err)

	liquidated, err := mgr.LiquidatePosition(context.Background(), "dave")
	require.NoError(t, err)
	require.Len(t, liquidated, 1)
	assert.Equal(t, position.StatusLiquidated, liquidated[0].Status)
	assert.True(t, liquidated[0].LiquidatorReward.Equal(d("0.5")), "got %s", liquidated[0].LiquidatorReward.String())
	assert.Equal(t, 1, st.liquidateCalls)
}

func TestClosePosition_OverCloseRejected(t *testing.T) {
	mgr, _ := newManager(t)
	mgr.RegisterAccount("erin")
	_, err := mgr.CreatePosition("erin", side.Buy, d("0.3"), d("1"), 1, d("10"))
	require.NoError(t, err)

	_, err = mgr.ClosePosition("erin", d("2"), d("0.4"))
	assert.Error(t, err)
}

func TestGetMarkPrice_FallbackChain(t *testing.T) {
	trades := tradelog.New("BTC")
	book := &stubBook{bid: d("0.4"), ask: d("0.5"), hasBid: true, hasAsk: true}
	oracle := &stubOracle{price: d("0.6")}
	mgr := position.New("BTC", &stubSettlement{}, oracle, book, trades, clock.Fixed{At: time.Unix(0, 0)})

	mark, err := mgr.GetMarkPrice(context.Background())
	require.NoError(t, err)
	assert.True(t, mark.Equal(d("0.45")), "expected midpoint fallback, got %s", mark.String())

	trades.Append(tradelog.Trade{Price: d("0.42"), Quantity: d("1")})
	mark, err = mgr.GetMarkPrice(context.Background())
	require.NoError(t, err)
	assert.True(t, mark.Equal(d("0.42")), "expected last-trade fallback, got %s", mark.String())
}
