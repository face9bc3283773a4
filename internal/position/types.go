// Package position implements the per-trader account registry,
// position lifecycle, PnL arithmetic, and liquidation dispatch for a
// single market.
package position

import (
	"time"

	"github.com/shopspring/decimal"

	"predictperp/internal/side"
)

// Status tracks a Position's lifecycle state.
type Status int

const (
	StatusOpen Status = iota
	StatusClosed
	StatusLiquidated
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	case StatusLiquidated:
		return "liquidated"
	default:
		return "unknown"
	}
}

// LiquidationRewardBPS is the share of a liquidated position's
// remaining margin paid to the liquidator. spec.md's glossary defines
// liquidation as rewarding "a portion of remaining margin" but never
// names the fraction; this repository fixes it at 50 bps.
const LiquidationRewardBPS = 50

// Position is one trader's exposure in one market. Notional for every
// PnL computation is margin × leverage, not quantity × price — spec.md
// §9 requires this formula be reproduced exactly, not corrected.
type Position struct {
	ID               uint64
	Account          string
	Market           string
	Side             side.Side
	EntryPrice       decimal.Decimal
	Quantity         decimal.Decimal
	Leverage         uint32
	Margin           decimal.Decimal
	LiquidationPrice decimal.Decimal // reserved; 0 when unused
	UnrealizedPnL    decimal.Decimal
	RealizedPnL      decimal.Decimal
	FundingPaid      decimal.Decimal
	LiquidatorReward decimal.Decimal
	Status           Status
	OpenedAt         time.Time
	ClosedAt         time.Time
}

// Notional is this position's margin × leverage economic size.
func (p *Position) Notional() decimal.Decimal {
	return p.Margin.Mul(decimal.NewFromInt32(int32(p.Leverage)))
}

// Account is a trader's lifetime position history. Closed and
// liquidated positions are retained, never deleted.
type Account struct {
	ID        string
	Positions []*Position
}

// openPosition returns the account's single OPEN position in market, if
// any. At most one OPEN position per (account, market) is an invariant
// the manager enforces on creation.
func (a *Account) openPosition(market string) *Position {
	for _, p := range a.Positions {
		if p.Market == market && p.Status == StatusOpen {
			return p
		}
	}
	return nil
}
