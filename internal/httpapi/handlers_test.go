package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictperp/internal/clock"
	"predictperp/internal/engine"
	"predictperp/internal/httpapi"
	"predictperp/internal/oracle"
	"predictperp/internal/settlement"
	"predictperp/internal/workerpool"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func newTestServer(t *testing.T) (*httptest.Server, *engine.Engine) {
	t.Helper()
	settle := settlement.NewMemory(d("0.5"))
	orcl := oracle.NewMemory(d("0.5"))
	pool := workerpool.New(1)
	pool.Start(context.Background())
	t.Cleanup(func() { _ = pool.Stop() })

	eng := engine.Build("BTC", settle, orcl, clock.Real{}, pool)
	srv := httpapi.New(httpapi.Config{Addr: ":0"}, eng)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, eng
}

func TestGetOrderbook_EmptyBookReturnsEmptyLevels(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/orderbook")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body["bids"])
	assert.Empty(t, body["asks"])
}

func TestPostLimitOrder_RestsAndAppearsInOrderbook(t *testing.T) {
	ts, _ := newTestServer(t)

	reqBody, err := json.Marshal(map[string]any{
		"trader_address": "alice",
		"direction":      "buy",
		"price":          "0.40",
		"quantity":       "2",
		"leverage":       3,
		"margin":         "10",
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/tx/limit_order", "application/json", bytes.NewReader(reqBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.NotZero(t, body["order_id"])
}

func TestPostLimitOrder_PriceOutsideUnitIntervalIs400(t *testing.T) {
	ts, _ := newTestServer(t)

	reqBody, err := json.Marshal(map[string]any{
		"trader_address": "alice",
		"direction":      "buy",
		"price":          "1.5",
		"quantity":       "2",
		"leverage":       3,
		"margin":         "10",
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/tx/limit_order", "application/json", bytes.NewReader(reqBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostLimitOrder_MissingBodyIs422(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/tx/limit_order", "application/json", bytes.NewReader(nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestGetPositions_UnknownAddressReturnsEmptyList(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/positions/nobody")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body["positions"])
}

func TestGetOraclePrice_ReturnsConfiguredPrice(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/oracle_price")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var price string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&price))
	assert.True(t, d(price).Equal(d("0.5")))
}
