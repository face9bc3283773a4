package httpapi

import "github.com/shopspring/decimal"

// depthRow is one [price, quantity] pair as the orderbook route serializes
// it, per spec.md §6's `{bids: [[price, qty], …], asks: [[price, qty], …]}`.
type depthRow [2]decimal.Decimal

type orderbookResponse struct {
	Bids []depthRow `json:"bids"`
	Asks []depthRow `json:"asks"`
}

type positionView struct {
	ID               uint64          `json:"id"`
	Account          string          `json:"account"`
	Market           string          `json:"market"`
	Side             string          `json:"side"`
	EntryPrice       decimal.Decimal `json:"entry_price"`
	Quantity         decimal.Decimal `json:"quantity"`
	Leverage         uint32          `json:"leverage"`
	Margin           decimal.Decimal `json:"margin"`
	UnrealizedPnL    decimal.Decimal `json:"unrealized_pnl"`
	RealizedPnL      decimal.Decimal `json:"realized_pnl"`
	FundingPaid      decimal.Decimal `json:"funding_paid"`
	Status           string          `json:"status"`
}

type positionsResponse struct {
	Positions []positionView `json:"positions"`
}

type tradeView struct {
	ID        uint64          `json:"id"`
	Market    string          `json:"market"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	TakerID   string          `json:"taker_id"`
	MakerID   string          `json:"maker_id"`
	TakerSide string          `json:"taker_side"`
}

type tradesResponse struct {
	Trades []tradeView `json:"trades"`
}

type limitOrderRequest struct {
	TraderAddress string          `json:"trader_address"`
	Direction     string          `json:"direction"`
	Price         decimal.Decimal `json:"price"`
	Quantity      decimal.Decimal `json:"quantity"`
	Leverage      uint32          `json:"leverage"`
	Margin        decimal.Decimal `json:"margin"`
	// ClientOrderID is optional; callers retrying a POST after a dropped
	// response can supply the same value to get the original order_id
	// back instead of resting a second order. The server assigns one
	// when the caller doesn't.
	ClientOrderID string `json:"client_order_id,omitempty"`
}

type limitOrderResponse struct {
	Status        string            `json:"status"`
	OrderID       uint64            `json:"order_id"`
	ClientOrderID string            `json:"client_order_id"`
	Orderbook     orderbookResponse `json:"orderbook"`
}

type marketOrderRequest struct {
	TraderAddress string          `json:"trader_address"`
	Direction     string          `json:"direction"`
	Quantity      decimal.Decimal `json:"quantity"`
	Leverage      uint32          `json:"leverage"`
	Margin        decimal.Decimal `json:"margin"`
}

type marketOrderResponse struct {
	Status    string            `json:"status"`
	Orderbook orderbookResponse `json:"orderbook"`
	Trades    []tradeView       `json:"trades"`
}

type removeLimitOrderRequest struct {
	TraderAddress string          `json:"trader_address"`
	OrderID       uint64          `json:"order_id"`
	Direction     string          `json:"direction"`
	Price         decimal.Decimal `json:"price"`
}

type removeLimitOrderResponse struct {
	Status    string            `json:"status"`
	Orderbook orderbookResponse `json:"orderbook"`
}

type errorResponse struct {
	Error string `json:"error"`
}
