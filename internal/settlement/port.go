// Package settlement defines the abstract RPC boundary to the on-chain
// contract that ultimately custodies trader funds (spec.md §6). The
// core never talks to a contract directly: it calls this port, and an
// adapter (Memory for tests/dev, chain.Client for production) carries
// the instruction the rest of the way.
package settlement

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceScale and FundingScale are the integer scaling factors the
// settlement contract uses for fixed-point arithmetic, per spec.md §6.
const (
	PriceScale   = 1_000_000
	FundingScale = 1_000_000_000_000_000_000
)

// ScalePrice converts a (0,1)-bounded decimal price to its on-chain
// integer representation: round(p * 10^6).
func ScalePrice(p decimal.Decimal) int64 {
	return p.Mul(decimal.NewFromInt(PriceScale)).Round(0).IntPart()
}

// UnscalePrice converts a scaled on-chain integer price back to a
// decimal in (0, 1).
func UnscalePrice(scaled int64) decimal.Decimal {
	return decimal.NewFromInt(scaled).Div(decimal.NewFromInt(PriceScale))
}

// ScaleFunding converts a funding rate to its on-chain integer
// representation: round(r * 10^18).
func ScaleFunding(r decimal.Decimal) int64 {
	return r.Mul(decimal.NewFromInt(FundingScale)).Round(0).IntPart()
}

// UnscaleFunding converts a scaled on-chain funding rate back to a
// decimal.
func UnscaleFunding(scaled int64) decimal.Decimal {
	return decimal.NewFromInt(scaled).Div(decimal.NewFromInt(FundingScale))
}

// Port is the full settlement RPC surface named in spec.md §6. The
// position manager only depends on the narrower position.Settlement
// subset; this is the complete port every adapter implements.
type Port interface {
	OpenPosition(ctx context.Context, trader string, margin decimal.Decimal, leverage uint32, isBuy bool, entryPrice decimal.Decimal) error
	ClosePosition(ctx context.Context, trader string, exitPrice decimal.Decimal) error
	AddLimitOrder(ctx context.Context, trader string, leverage uint32, margin, price decimal.Decimal, quantity decimal.Decimal, isBuy bool) error
	CloseLimitOrder(ctx context.Context, trader string) error
	FillLimitOrder(ctx context.Context, trader string, quantity decimal.Decimal) error
	Liquidate(ctx context.Context, trader string) error

	GetOraclePrice(ctx context.Context) (decimal.Decimal, error)
	FundingRatePerSecond(ctx context.Context) (decimal.Decimal, error)
	UpdateOracle(ctx context.Context, price decimal.Decimal) error
	UpdatePerp(ctx context.Context, price decimal.Decimal) error
	UpdateFunding(ctx context.Context, rate decimal.Decimal) error
}
