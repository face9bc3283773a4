// Package oracle defines the index-price/funding-rate read port spec.md
// §6 names, split into the same Memory/chain-adapter shape as
// internal/settlement, plus a short TTL cache addressing spec.md §9's
// staleness note on the oracle side of the mark-price fallback chain.
package oracle

import (
	"context"

	"github.com/shopspring/decimal"
)

// Port is the external index/funding read surface.
type Port interface {
	GetOraclePrice(ctx context.Context) (decimal.Decimal, error)
	FundingRatePerSecond(ctx context.Context) (decimal.Decimal, error)
}
