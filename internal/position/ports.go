package position

import (
	"context"

	"github.com/shopspring/decimal"

	"predictperp/internal/tradelog"
)

// Settlement is the narrow slice of the settlement port the position
// manager needs: emitting custody-affecting instructions for opens,
// closes, and forced liquidations. The concrete adapter (in-memory or
// chain-backed) lives in internal/settlement; the manager only ever
// sees this interface, per the port design in spec.md §9.
type Settlement interface {
	OpenPosition(ctx context.Context, trader string, margin decimal.Decimal, leverage uint32, isBuy bool, entryPrice decimal.Decimal) error
	ClosePosition(ctx context.Context, trader string, exitPrice decimal.Decimal) error
	Liquidate(ctx context.Context, trader string) error
}

// Oracle is the narrow slice of the oracle port the mark-price fallback
// chain needs.
type Oracle interface {
	GetOraclePrice(ctx context.Context) (decimal.Decimal, error)
}

// BookView is the read-only slice of an order book's best-bid/best-ask
// that get_mark_price's mid-price fallback branch needs. The position
// manager never mutates the book.
type BookView interface {
	BestBid() (decimal.Decimal, bool)
	BestAsk() (decimal.Decimal, bool)
}

// TradeSource is the read-only slice of the trade log that
// get_mark_price's last-trade branch needs.
type TradeSource interface {
	Last() (tradelog.Trade, bool)
}

// Sink lets a persistence adapter mirror position mutations without the
// matching path depending on storage latency, mirroring the trade log's
// Sink pattern.
type Sink interface {
	Mirror(Position)
}

type noopSink struct{}

func (noopSink) Mirror(Position) {}
