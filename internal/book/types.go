// Package book implements the price-time priority central limit order
// book for a single instrument; its matching path feeds the append-only
// trade log in package tradelog.
//
// Prices live in the open interval (0, 1): this book serves a
// prediction-market perpetual whose underlying is a probability, so a
// price of exactly 0 or 1 is rejected rather than clamped.
package book

import (
	"time"

	"github.com/shopspring/decimal"

	"predictperp/internal/side"
)

// Side is a tagged buy/sell value, re-exported here so callers of this
// package rarely need to import predictperp/internal/side directly.
type Side = side.Side

const (
	Buy  = side.Buy
	Sell = side.Sell
)

// OrderType distinguishes resting limit orders from immediate-or-sweep
// market orders. Stop, iceberg, post-only, IOC and FOK variants are out of
// scope.
type OrderType int

const (
	LimitOrder OrderType = iota
	MarketOrder
)

func (t OrderType) String() string {
	if t == LimitOrder {
		return "limit"
	}
	return "market"
}

// OrderStatus tracks an Order's position in its lifecycle.
type OrderStatus int

const (
	StatusOpen OrderStatus = iota
	StatusPartiallyFilled
	StatusFilled
	StatusCancelled
)

func (s OrderStatus) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusPartiallyFilled:
		return "partially_filled"
	case StatusFilled:
		return "filled"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Order is a resting or fully-dispatched limit/market order. Quantity is
// decimal rather than integer because prediction-market share sizes are
// fractional in the test scenarios this book must reproduce exactly
// (e.g. a 1.5-share fill).
type Order struct {
	ID            uint64
	Trader        string
	Side          Side
	Type          OrderType
	Price         decimal.Decimal // limit price; zero for market orders
	Quantity      decimal.Decimal // total requested quantity
	Filled        decimal.Decimal // quantity filled so far
	Leverage      uint32
	Margin        decimal.Decimal
	ClientOrderID string // optional caller-supplied idempotency key
	CreatedAt     time.Time
	Status        OrderStatus
}

// Remaining returns the quantity still resting on the book.
func (o *Order) Remaining() decimal.Decimal {
	return o.Quantity.Sub(o.Filled)
}

// Notional is margin × leverage, the notional size convention this whole
// system uses for fee and PnL arithmetic (not quantity × price).
func (o *Order) Notional() decimal.Decimal {
	return o.Margin.Mul(decimal.NewFromInt32(int32(o.Leverage)))
}

// PriceLevel is a FIFO queue of resting orders at a single price.
type PriceLevel struct {
	Price  decimal.Decimal
	Orders []*Order
}
