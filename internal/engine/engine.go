// Package engine wires the order book, trade log, and position manager
// together behind the book.Hooks port, generalizing the teacher's
// engine.Engine (internal/engine/engine.go's Books map[AssetType]
// OrderBook, Trade() dispatch) from a multi-asset equities matcher down
// to the single-market perpetual this repository's Non-goals call for.
package engine

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"predictperp/internal/book"
	"predictperp/internal/position"
	"predictperp/internal/settlement"
	"predictperp/internal/side"
	"predictperp/internal/tradelog"
	"predictperp/internal/workerpool"
)

// Engine binds one market's Book to its PositionManager through the
// Hooks port, and fans settlement emissions out to a worker pool so the
// matching path's lock is never held across I/O.
type Engine struct {
	market     string
	Book       *book.Book
	Trades     *tradelog.Log
	Positions  *position.Manager
	settlement settlement.Port
	pool       *workerpool.Pool
}

// New builds an Engine for market. The Book passed in must have been
// constructed with this Engine as its Hooks implementation — callers
// follow the two-step New/Wire sequence below since the book needs the
// engine and the engine needs the book.
func New(market string, settle settlement.Port, pool *workerpool.Pool) *Engine {
	return &Engine{market: market, settlement: settle, pool: pool}
}

// Wire attaches the book, trade log, and position manager this engine
// orchestrates. Must be called once, before any order is submitted.
func (e *Engine) Wire(b *book.Book, trades *tradelog.Log, positions *position.Manager) {
	e.Book = b
	e.Trades = trades
	e.Positions = positions
}

var _ book.Hooks = (*Engine)(nil)

// OnLimitAccepted emits the settlement custody-request instruction for
// a newly-resting limit order, fire-and-forget per spec.md §5.
func (e *Engine) OnLimitAccepted(o *book.Order) {
	trader, leverage, margin, price, quantity, isBuy := o.Trader, o.Leverage, o.Margin, o.Price, o.Quantity, o.Side == book.Buy
	e.pool.Submit(func(ctx context.Context) error {
		return e.settlement.AddLimitOrder(ctx, trader, leverage, margin, price, quantity, isBuy)
	})
}

// OnLimitCancelled emits the settlement cancel instruction for a
// removed resting limit order.
func (e *Engine) OnLimitCancelled(o *book.Order) {
	trader := o.Trader
	e.pool.Submit(func(ctx context.Context) error {
		return e.settlement.CloseLimitOrder(ctx, trader)
	})
}

// OnMakerFill asks the position manager to open-or-close on the maker
// side of one touch, per spec.md §4.1 step 3.
func (e *Engine) OnMakerFill(trade tradelog.Trade, maker *book.Order, makerRemoved bool) {
	e.dispositionFill(maker.Trader, maker.Side, trade.Quantity, trade.Price, maker.Leverage, maker.Margin)

	trader := maker.Trader
	qty := trade.Quantity
	e.pool.Submit(func(ctx context.Context) error {
		return e.settlement.FillLimitOrder(ctx, trader, qty)
	})
}

// OnTakerFilled asks the position manager to open-or-close on the
// taker's side as a whole, using the volume-weighted average execution
// price, per spec.md §4.1 step 6.
func (e *Engine) OnTakerFilled(taker *book.Order, avgPrice, totalQty decimal.Decimal) {
	e.dispositionFill(taker.Trader, taker.Side, totalQty, avgPrice, taker.Leverage, taker.Margin)
}

// dispositionFill implements the "open-or-close" decision common to
// both maker and taker touches: an OPEN position on the opposite side
// in this market is reduced or closed; otherwise a new position is
// opened, which the manager refuses (logged) if one is already OPEN.
func (e *Engine) dispositionFill(trader string, s side.Side, quantity, price decimal.Decimal, leverage uint32, margin decimal.Decimal) {
	e.Positions.RegisterAccount(trader)

	existing := findOpenOpposite(e.Positions, trader, e.market, s)

	if existing != nil {
		closeQty := quantity
		if closeQty.GreaterThan(existing.Quantity) {
			closeQty = existing.Quantity
		}
		if _, err := e.Positions.ClosePosition(trader, closeQty, price); err != nil {
			log.Error().Err(err).Str("trader", trader).Msg("engine: close position failed")
			return
		}
		e.pool.Submit(func(ctx context.Context) error {
			return e.settlement.ClosePosition(ctx, trader, price)
		})
		return
	}

	pos, err := e.Positions.CreatePosition(trader, s, price, quantity, leverage, margin)
	if err != nil {
		log.Error().Err(err).Str("trader", trader).Msg("engine: create position failed")
		return
	}
	isBuy := s == side.Buy
	e.pool.Submit(func(ctx context.Context) error {
		return e.settlement.OpenPosition(ctx, trader, pos.Margin, pos.Leverage, isBuy, pos.EntryPrice)
	})
}

// findOpenOpposite returns trader's OPEN position in market if its side
// is the opposite of s, or nil — the condition under which a fill on
// side s should close rather than open.
func findOpenOpposite(mgr *position.Manager, trader, market string, s side.Side) *position.Position {
	for _, pos := range mgr.ListPositions(trader) {
		if pos.Market == market && pos.Status == position.StatusOpen && pos.Side == s.Opposite() {
			return pos
		}
	}
	return nil
}
