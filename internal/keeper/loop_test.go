package keeper_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictperp/internal/keeper"
)

type fakeSettlement struct {
	oracleUpdates  []decimal.Decimal
	perpUpdates    []decimal.Decimal
	fundingUpdates []decimal.Decimal
}

func (f *fakeSettlement) OpenPosition(context.Context, string, decimal.Decimal, uint32, bool, decimal.Decimal) error {
	return nil
}
func (f *fakeSettlement) ClosePosition(context.Context, string, decimal.Decimal) error { return nil }
func (f *fakeSettlement) AddLimitOrder(context.Context, string, uint32, decimal.Decimal, decimal.Decimal, decimal.Decimal, bool) error {
	return nil
}
func (f *fakeSettlement) CloseLimitOrder(context.Context, string) error                { return nil }
func (f *fakeSettlement) FillLimitOrder(context.Context, string, decimal.Decimal) error { return nil }
func (f *fakeSettlement) Liquidate(context.Context, string) error                      { return nil }
func (f *fakeSettlement) GetOraclePrice(context.Context) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (f *fakeSettlement) FundingRatePerSecond(context.Context) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (f *fakeSettlement) UpdateOracle(_ context.Context, price decimal.Decimal) error {
	f.oracleUpdates = append(f.oracleUpdates, price)
	return nil
}
func (f *fakeSettlement) UpdatePerp(_ context.Context, price decimal.Decimal) error {
	f.perpUpdates = append(f.perpUpdates, price)
	return nil
}
func (f *fakeSettlement) UpdateFunding(_ context.Context, rate decimal.Decimal) error {
	f.fundingUpdates = append(f.fundingUpdates, rate)
	return nil
}

// A tick pushes the fetched external index price onto the settlement
// port unchanged.
func TestOracleLoop_TickPushesFetchedPrice(t *testing.T) {
	settle := &fakeSettlement{}
	price, _ := decimal.NewFromString("0.63")
	loop := keeper.NewOracleLoop(keeper.StaticIndexSource{Price: price}, settle, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = loop.Run(ctx)

	require.Len(t, settle.oracleUpdates, 1)
	assert.True(t, price.Equal(settle.oracleUpdates[0]))
}

// The funding loop derives (perp - oracle) / oracle from the core's
// own HTTP surface and pushes both the perp price and the rate.
func TestFundingLoop_TickDerivesRateFromCoreEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/perp_price", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(decimal.NewFromFloat(0.55))
	})
	mux.HandleFunc("/oracle_price", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(decimal.NewFromFloat(0.50))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	settle := &fakeSettlement{}
	core := keeper.NewCoreClient(srv.URL)
	loop := keeper.NewFundingLoop(core, settle, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = loop.Run(ctx)

	require.Len(t, settle.perpUpdates, 1)
	require.Len(t, settle.fundingUpdates, 1)
	assert.True(t, decimal.NewFromFloat(0.55).Equal(settle.perpUpdates[0]))
	expectedRate := decimal.NewFromFloat(0.55).Sub(decimal.NewFromFloat(0.50)).Div(decimal.NewFromFloat(0.50))
	assert.True(t, expectedRate.Equal(settle.fundingUpdates[0]))
}
