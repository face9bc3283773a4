package book

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"predictperp/internal/errs"
	"predictperp/internal/tradelog"
)

// Hooks lets the book notify its owner about fills and resting-order
// lifecycle events without the book importing the position manager or
// settlement packages directly — the book stays a pure matching
// primitive; the engine that constructs it supplies the port.
type Hooks interface {
	// OnLimitAccepted fires once a new resting limit order has been
	// appended to its level, before the book returns to the caller.
	OnLimitAccepted(order *Order)
	// OnLimitCancelled fires once a resting order has been removed by
	// CancelLimit.
	OnLimitCancelled(order *Order)
	// OnMakerFill fires once per resting order touched during a market
	// sweep, maker-side.
	OnMakerFill(trade tradelog.Trade, maker *Order, makerRemoved bool)
	// OnTakerFilled fires once, after a market order finishes sweeping,
	// with its volume-weighted average execution price and total filled
	// quantity.
	OnTakerFilled(taker *Order, avgPrice, totalQty decimal.Decimal)
}

// NoopHooks is a Hooks implementation that does nothing, useful for
// exercising the book in isolation (tests, depth-only tooling).
type NoopHooks struct{}

func (NoopHooks) OnLimitAccepted(*Order)                             {}
func (NoopHooks) OnLimitCancelled(*Order)                            {}
func (NoopHooks) OnMakerFill(tradelog.Trade, *Order, bool)           {}
func (NoopHooks) OnTakerFilled(*Order, decimal.Decimal, decimal.Decimal) {}

// Fee rates are configuration, per spec: 2 bps maker, 6 bps taker.
var (
	MakerFeeRate = decimal.NewFromFloat(0.0002)
	TakerFeeRate = decimal.NewFromFloat(0.0006)
)

func lessBids(a, b *PriceLevel) bool { return a.Price.GreaterThan(b.Price) }
func lessAsks(a, b *PriceLevel) bool { return a.Price.LessThan(b.Price) }

// Book is the price-time priority order book for one market. All
// mutation is serialized by mu; this is the single-writer lock the
// engine's matching path holds for the duration of a submit/cancel/
// execute call, per the spec's concurrency model.
type Book struct {
	mu sync.RWMutex

	market string
	hooks  Hooks
	trades *tradelog.Log

	bids *btree.BTreeG[*PriceLevel]
	asks *btree.BTreeG[*PriceLevel]

	nextOrderID uint64
}

// New creates an empty book for market. hooks must not be nil; pass
// NoopHooks{} to run the book standalone.
func New(market string, hooks Hooks, trades *tradelog.Log) *Book {
	return &Book{
		market: market,
		hooks:  hooks,
		trades: trades,
		bids:   btree.NewBTreeG(lessBids),
		asks:   btree.NewBTreeG(lessAsks),
	}
}

func levelsFor(b *Book, s Side) *btree.BTreeG[*PriceLevel] {
	if s == Buy {
		return b.bids
	}
	return b.asks
}

func oppositeLevelsFor(b *Book, s Side) *btree.BTreeG[*PriceLevel] {
	return levelsFor(b, s.Opposite())
}

var (
	one  = decimal.NewFromInt(1)
	zero = decimal.Zero
)

func validatePrice(p decimal.Decimal) error {
	if !p.IsPositive() || p.GreaterThanOrEqual(one) {
		return errs.Validationf("price %s outside (0, 1)", p.String())
	}
	return nil
}

func validateOrderInputs(quantity, margin decimal.Decimal, leverage uint32) error {
	if !quantity.IsPositive() {
		return errs.Validationf("quantity must be positive, got %s", quantity.String())
	}
	if leverage < 1 {
		return errs.Validationf("leverage must be >= 1, got %d", leverage)
	}
	if !margin.IsPositive() {
		return errs.Validationf("margin must be positive, got %s", margin.String())
	}
	return nil
}

// SubmitLimit validates inputs, appends a new OPEN limit order to the
// tail of its (side, price) level, and notifies hooks. This book is
// post-only: a limit order that crosses the opposite side is still
// simply appended and left resting, per the spec's explicit "do not
// silently change behavior" note — crossing limits are a named
// non-goal, not an oversight.
func (b *Book) SubmitLimit(trader string, s Side, price, quantity decimal.Decimal, leverage uint32, margin decimal.Decimal) (*Order, error) {
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	if err := validateOrderInputs(quantity, margin, leverage); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextOrderID++
	order := &Order{
		ID:        b.nextOrderID,
		Trader:    trader,
		Side:      s,
		Type:      LimitOrder,
		Price:     price,
		Quantity:  quantity,
		Leverage:  leverage,
		Margin:    margin,
		CreatedAt: time.Now(),
		Status:    StatusOpen,
	}

	levels := levelsFor(b, s)
	if level, ok := levels.GetMut(&PriceLevel{Price: price}); ok {
		level.Orders = append(level.Orders, order)
	} else {
		levels.Set(&PriceLevel{Price: price, Orders: []*Order{order}})
	}

	b.hooks.OnLimitAccepted(order)
	return order, nil
}

// CancelLimit removes the identified resting order from its level,
// dropping the level entirely if it becomes empty.
func (b *Book) CancelLimit(trader string, orderID uint64, s Side, price decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	levels := levelsFor(b, s)
	level, ok := levels.GetMut(&PriceLevel{Price: price})
	if !ok {
		return errs.Statef("not found: no level at price %s", price.String())
	}

	idx := -1
	for i, o := range level.Orders {
		if o.ID == orderID && o.Trader == trader {
			idx = i
			break
		}
	}
	if idx == -1 {
		return errs.Statef("not found: order %d for trader %s", orderID, trader)
	}

	order := level.Orders[idx]
	level.Orders = append(level.Orders[:idx], level.Orders[idx+1:]...)
	order.Status = StatusCancelled

	if len(level.Orders) == 0 {
		levels.Delete(level)
	}

	b.hooks.OnLimitCancelled(order)
	return nil
}

// ExecuteMarket walks the opposite side of the book in price-time
// priority, consuming resting quantity until either the incoming
// quantity is exhausted or the book runs dry. Partial touches remove the
// resting maker entirely from the book (the MVP refund policy the spec
// requires to be preserved, not "fixed").
func (b *Book) ExecuteMarket(trader string, s Side, quantity decimal.Decimal, leverage uint32, margin decimal.Decimal) ([]tradelog.Trade, error) {
	if err := validateOrderInputs(quantity, margin, leverage); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	opposite := oppositeLevelsFor(b, s)
	if opposite.Len() == 0 {
		return nil, errs.Statef("no book depth")
	}

	b.nextOrderID++
	taker := &Order{
		ID:        b.nextOrderID,
		Trader:    trader,
		Side:      s,
		Type:      MarketOrder,
		Quantity:  quantity,
		Leverage:  leverage,
		Margin:    margin,
		CreatedAt: time.Now(),
		Status:    StatusOpen,
	}

	remaining := quantity
	var fills []tradelog.Trade

	for remaining.IsPositive() {
		level, ok := opposite.Min()
		if !ok {
			break
		}

		for len(level.Orders) > 0 && remaining.IsPositive() {
			resting := level.Orders[0]

			var matchQty decimal.Decimal
			var restingRemoved bool
			if remaining.GreaterThanOrEqual(resting.Remaining()) {
				matchQty = resting.Remaining()
				resting.Filled = resting.Quantity
				resting.Status = StatusFilled
				level.Orders = level.Orders[1:]
				restingRemoved = true
			} else {
				// Partial touch: fill what we can, then remove the maker
				// entirely and treat its untouched quantity as refunded.
				// This is the MVP policy the spec requires verbatim.
				matchQty = remaining
				resting.Filled = resting.Filled.Add(matchQty)
				resting.Status = StatusPartiallyFilled
				level.Orders = level.Orders[1:]
				restingRemoved = true
			}

			remaining = remaining.Sub(matchQty)
			taker.Filled = taker.Filled.Add(matchQty)

			trade := b.trades.Append(tradelog.Trade{
				Timestamp: time.Now(),
				Price:     level.Price,
				Quantity:  matchQty,
				TakerID:   trader,
				MakerID:   resting.Trader,
				TakerSide: s,
				TakerFee:  taker.Notional().Mul(TakerFeeRate),
				MakerFee:  resting.Notional().Mul(MakerFeeRate),
			})
			fills = append(fills, trade)

			b.hooks.OnMakerFill(trade, resting, restingRemoved)
		}

		if len(level.Orders) == 0 {
			opposite.Delete(level)
		}
	}

	if taker.Filled.GreaterThan(zero) {
		taker.Status = StatusFilled
		avgPrice := volumeWeightedAverage(fills)
		b.hooks.OnTakerFilled(taker, avgPrice, taker.Filled)
	}

	return fills, nil
}

func volumeWeightedAverage(fills []tradelog.Trade) decimal.Decimal {
	if len(fills) == 0 {
		return zero
	}
	var notional, qty decimal.Decimal
	for _, f := range fills {
		notional = notional.Add(f.Price.Mul(f.Quantity))
		qty = qty.Add(f.Quantity)
	}
	if qty.IsZero() {
		return zero
	}
	return notional.Div(qty)
}

// BestBid returns the highest resting bid price, or false if the bid
// side is empty.
func (b *Book) BestBid() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	level, ok := b.bids.Min()
	if !ok {
		return zero, false
	}
	return level.Price, true
}

// BestAsk returns the lowest resting ask price, or false if the ask side
// is empty.
func (b *Book) BestAsk() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	level, ok := b.asks.Min()
	if !ok {
		return zero, false
	}
	return level.Price, true
}

// DepthLevel is one [price, aggregated remaining quantity] row of a
// snapshot.
type DepthLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// Snapshot returns the structural depth view: bids descending, asks
// ascending, each level aggregating the remaining quantity of its
// resting orders.
func (b *Book) Snapshot() (bids, asks []DepthLevel) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	b.bids.Scan(func(level *PriceLevel) bool {
		bids = append(bids, DepthLevel{Price: level.Price, Quantity: aggregateRemaining(level)})
		return true
	})
	b.asks.Scan(func(level *PriceLevel) bool {
		asks = append(asks, DepthLevel{Price: level.Price, Quantity: aggregateRemaining(level)})
		return true
	})
	return bids, asks
}

func aggregateRemaining(level *PriceLevel) decimal.Decimal {
	total := zero
	for _, o := range level.Orders {
		total = total.Add(o.Remaining())
	}
	return total
}

// Market returns the instrument name this book serves.
func (b *Book) Market() string { return b.market }
