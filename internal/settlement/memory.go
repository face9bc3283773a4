package settlement

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Memory is an in-process settlement adapter for tests and local
// development: it records every call instead of submitting a
// transaction, and serves oracle/funding reads from values set by the
// keepers or test code via UpdateOracle/UpdateFunding (UpdatePerp's
// value is stored but no method reads it back).
type Memory struct {
	mu sync.Mutex

	OpenCalls      []string
	CloseCalls     []string
	LiquidateCalls []string

	oraclePrice  decimal.Decimal
	perpPrice    decimal.Decimal
	fundingRate  decimal.Decimal
}

// NewMemory creates a Memory adapter seeded with an initial oracle
// price.
func NewMemory(initialOraclePrice decimal.Decimal) *Memory {
	return &Memory{oraclePrice: initialOraclePrice}
}

func (m *Memory) OpenPosition(_ context.Context, trader string, margin decimal.Decimal, leverage uint32, isBuy bool, entryPrice decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OpenCalls = append(m.OpenCalls, trader)
	log.Debug().Str("trader", trader).Str("margin", margin.String()).Uint32("leverage", leverage).Bool("buy", isBuy).Str("entry", entryPrice.String()).Msg("settlement: open position (memory)")
	return nil
}

func (m *Memory) ClosePosition(_ context.Context, trader string, exitPrice decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls = append(m.CloseCalls, trader)
	log.Debug().Str("trader", trader).Str("exit", exitPrice.String()).Msg("settlement: close position (memory)")
	return nil
}

func (m *Memory) AddLimitOrder(_ context.Context, trader string, leverage uint32, margin, price, quantity decimal.Decimal, isBuy bool) error {
	log.Debug().Str("trader", trader).Msg("settlement: add limit order (memory)")
	return nil
}

func (m *Memory) CloseLimitOrder(_ context.Context, trader string) error {
	log.Debug().Str("trader", trader).Msg("settlement: close limit order (memory)")
	return nil
}

func (m *Memory) FillLimitOrder(_ context.Context, trader string, quantity decimal.Decimal) error {
	log.Debug().Str("trader", trader).Str("quantity", quantity.String()).Msg("settlement: fill limit order (memory)")
	return nil
}

func (m *Memory) Liquidate(_ context.Context, trader string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LiquidateCalls = append(m.LiquidateCalls, trader)
	log.Debug().Str("trader", trader).Msg("settlement: liquidate (memory)")
	return nil
}

func (m *Memory) GetOraclePrice(context.Context) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.oraclePrice, nil
}

func (m *Memory) FundingRatePerSecond(context.Context) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fundingRate, nil
}

func (m *Memory) UpdateOracle(_ context.Context, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.oraclePrice = price
	return nil
}

func (m *Memory) UpdatePerp(_ context.Context, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.perpPrice = price
	return nil
}

func (m *Memory) UpdateFunding(_ context.Context, rate decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fundingRate = rate
	return nil
}
