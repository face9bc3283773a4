package risk_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictperp/internal/clock"
	"predictperp/internal/position"
	"predictperp/internal/risk"
	"predictperp/internal/side"
	"predictperp/internal/tradelog"
)

type fakeSettlement struct{ liquidated []string }

func (f *fakeSettlement) OpenPosition(context.Context, string, decimal.Decimal, uint32, bool, decimal.Decimal) error {
	return nil
}
func (f *fakeSettlement) ClosePosition(context.Context, string, decimal.Decimal) error { return nil }
func (f *fakeSettlement) Liquidate(_ context.Context, trader string) error {
	f.liquidated = append(f.liquidated, trader)
	return nil
}

type fakeOracle struct{ price decimal.Decimal }

func (o *fakeOracle) GetOraclePrice(context.Context) (decimal.Decimal, error) { return o.price, nil }

type fakeBook struct{}

func (fakeBook) BestBid() (decimal.Decimal, bool) { return decimal.Zero, false }
func (fakeBook) BestAsk() (decimal.Decimal, bool) { return decimal.Zero, false }

type fakeNotifier struct{ notified []string }

func (n *fakeNotifier) NotifyLiquidation(account string, _ []*position.Position) {
	n.notified = append(n.notified, account)
}

func dd(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

// A position whose mark has moved past the maintenance threshold is
// liquidated by the next sweep, and the notifier fires exactly once.
func TestLoop_SweepLiquidatesBreachedPosition(t *testing.T) {
	trades := tradelog.New("BTC")
	trades.Append(tradelog.Trade{Price: dd("0.418"), Quantity: dd("1")})

	st := &fakeSettlement{}
	mgr := position.New("BTC", st, &fakeOracle{price: dd("0.418")}, fakeBook{}, trades, clock.Fixed{At: time.Unix(0, 0)})
	mgr.RegisterAccount("dave")
	_, err := mgr.CreatePosition("dave", side.Buy, dd("0.50"), dd("1"), 5, dd("100"))
	require.NoError(t, err)

	notifier := &fakeNotifier{}
	loop := risk.New(mgr, 10*time.Millisecond, notifier)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = loop.Run(ctx)

	assert.Contains(t, st.liquidated, "dave")
	assert.Contains(t, notifier.notified, "dave")
	assert.Empty(t, mgr.OpenPositions())
}

// A healthy position survives repeated sweeps untouched.
func TestLoop_SweepSkipsHealthyPosition(t *testing.T) {
	trades := tradelog.New("BTC")
	trades.Append(tradelog.Trade{Price: dd("0.55"), Quantity: dd("1")})

	st := &fakeSettlement{}
	mgr := position.New("BTC", st, &fakeOracle{price: dd("0.55")}, fakeBook{}, trades, clock.Fixed{At: time.Unix(0, 0)})
	mgr.RegisterAccount("erin")
	_, err := mgr.CreatePosition("erin", side.Buy, dd("0.50"), dd("1"), 5, dd("100"))
	require.NoError(t, err)

	notifier := &fakeNotifier{}
	loop := risk.New(mgr, 10*time.Millisecond, notifier)

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()
	_ = loop.Run(ctx)

	assert.Empty(t, st.liquidated)
	assert.Len(t, mgr.OpenPositions(), 1)
}
