package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"predictperp/internal/book"
	"predictperp/internal/position"
	"predictperp/internal/side"
	"predictperp/internal/tradelog"
)

// SubmitLimitOrder validates and appends a resting limit order,
// registering the trader's account first so a first-time trader's
// subsequent fills always have somewhere to land.
func (e *Engine) SubmitLimitOrder(trader string, s side.Side, price, quantity decimal.Decimal, leverage uint32, margin decimal.Decimal) (*book.Order, error) {
	e.Positions.RegisterAccount(trader)
	return e.Book.SubmitLimit(trader, s, price, quantity, leverage, margin)
}

// CancelLimitOrder removes a resting limit order.
func (e *Engine) CancelLimitOrder(trader string, orderID uint64, s side.Side, price decimal.Decimal) error {
	return e.Book.CancelLimit(trader, orderID, s, price)
}

// SubmitMarketOrder sweeps the opposite side of the book, recording
// fills and dispositioning the taker's position via the Hooks
// callbacks invoked synchronously inside Book.ExecuteMarket.
func (e *Engine) SubmitMarketOrder(trader string, s side.Side, quantity decimal.Decimal, leverage uint32, margin decimal.Decimal) ([]tradelog.Trade, error) {
	e.Positions.RegisterAccount(trader)
	return e.Book.ExecuteMarket(trader, s, quantity, leverage, margin)
}

// Snapshot returns the current order book depth.
func (e *Engine) Snapshot() (bids, asks []book.DepthLevel) {
	return e.Book.Snapshot()
}

// RecentTrades returns the last n trades.
func (e *Engine) RecentTrades(n int) []tradelog.Trade {
	return e.Trades.Tail(n)
}

// OpenPositionsFor returns trader's OPEN positions with freshly
// refreshed unrealized PnL, for the /positions/{address} endpoint.
func (e *Engine) OpenPositionsFor(ctx context.Context, trader string) ([]*position.Position, error) {
	var open []*position.Position
	for _, pos := range e.Positions.ListPositions(trader) {
		if pos.Status != position.StatusOpen {
			continue
		}
		if _, err := e.Positions.UpdateUnrealizedPnL(ctx, pos); err != nil {
			return nil, err
		}
		open = append(open, pos)
	}
	return open, nil
}

// OraclePrice returns the external index price.
func (e *Engine) OraclePrice(ctx context.Context) (decimal.Decimal, error) {
	return e.Positions.GetOraclePrice(ctx)
}

// PerpPrice returns the perp mark price.
func (e *Engine) PerpPrice(ctx context.Context) (decimal.Decimal, error) {
	return e.Positions.GetMarkPrice(ctx)
}

// Market returns the instrument name this engine serves.
func (e *Engine) Market() string { return e.market }
