package book_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictperp/internal/book"
	"predictperp/internal/tradelog"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func newBook(t *testing.T) *book.Book {
	t.Helper()
	return book.New("TEST-MARKET", book.NoopHooks{}, tradelog.New("TEST-MARKET"))
}

// Scenario 1: a resting limit order with no crossing counterpart stays
// on the book untouched.
func TestSubmitLimit_RestsWithNoCross(t *testing.T) {
	b := newBook(t)

	order, err := b.SubmitLimit("alice", book.Buy, d("0.45"), d("2"), 1, d("1"))
	require.NoError(t, err)
	assert.Equal(t, book.StatusOpen, order.Status)

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Equal(d("0.45")))

	_, ok = b.BestAsk()
	assert.False(t, ok)
}

// Scenario 2: two resting orders at the same price fill in FIFO order.
func TestSubmitLimit_PriceTimePriority(t *testing.T) {
	b := newBook(t)

	first, err := b.SubmitLimit("alice", book.Sell, d("0.60"), d("1"), 1, d("1"))
	require.NoError(t, err)
	_, err = b.SubmitLimit("bob", book.Sell, d("0.60"), d("1"), 1, d("1"))
	require.NoError(t, err)

	fills, err := b.ExecuteMarket("carol", book.Buy, d("1"), 1, d("1"))
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, first.Trader, fills[0].MakerID)
	assert.True(t, fills[0].Quantity.Equal(d("1")))
}

// Scenario 3: a market order sweeps multiple price levels, best price
// first.
func TestExecuteMarket_SweepsMultipleLevels(t *testing.T) {
	b := newBook(t)

	_, err := b.SubmitLimit("alice", book.Sell, d("0.50"), d("1"), 1, d("1"))
	require.NoError(t, err)
	_, err = b.SubmitLimit("bob", book.Sell, d("0.55"), d("1"), 1, d("1"))
	require.NoError(t, err)

	fills, err := b.ExecuteMarket("carol", book.Buy, d("2"), 1, d("2"))
	require.NoError(t, err)
	require.Len(t, fills, 2)
	assert.True(t, fills[0].Price.Equal(d("0.50")))
	assert.True(t, fills[1].Price.Equal(d("0.55")))
}

// A resting maker partially touched by a smaller market order is
// removed from the book entirely rather than left resting with reduced
// quantity (the MVP refund policy).
func TestExecuteMarket_PartialTouchRemovesMakerEntirely(t *testing.T) {
	b := newBook(t)

	_, err := b.SubmitLimit("alice", book.Buy, d("0.55"), d("1.5"), 1, d("1"))
	require.NoError(t, err)

	fills, err := b.ExecuteMarket("carol", book.Sell, d("1"), 1, d("1"))
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.True(t, fills[0].Quantity.Equal(d("1")))

	_, ok := b.BestBid()
	assert.False(t, ok, "partially-touched maker must be fully removed, not left resting")
}

func TestExecuteMarket_NoDepthIsStateError(t *testing.T) {
	b := newBook(t)

	_, err := b.ExecuteMarket("carol", book.Buy, d("1"), 1, d("1"))
	require.Error(t, err)
}

func TestSubmitLimit_RejectsPriceOutsideUnitInterval(t *testing.T) {
	b := newBook(t)

	_, err := b.SubmitLimit("alice", book.Buy, d("1.00"), d("1"), 1, d("1"))
	assert.Error(t, err)

	_, err = b.SubmitLimit("alice", book.Buy, d("0"), d("1"), 1, d("1"))
	assert.Error(t, err)
}

func TestCancelLimit_RemovesRestingOrder(t *testing.T) {
	b := newBook(t)

	order, err := b.SubmitLimit("alice", book.Buy, d("0.3"), d("1"), 1, d("1"))
	require.NoError(t, err)

	err = b.CancelLimit("alice", order.ID, book.Buy, d("0.3"))
	require.NoError(t, err)

	_, ok := b.BestBid()
	assert.False(t, ok)
}

func TestCancelLimit_UnknownOrderIsStateError(t *testing.T) {
	b := newBook(t)
	err := b.CancelLimit("alice", 999, book.Buy, d("0.3"))
	assert.Error(t, err)
}
