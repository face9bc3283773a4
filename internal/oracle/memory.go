package oracle

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// Memory is an in-process Port for tests and local development: reads
// return whatever was last set via SetOraclePrice/SetFundingRate.
type Memory struct {
	mu      sync.RWMutex
	price   decimal.Decimal
	funding decimal.Decimal
}

// NewMemory creates a Memory oracle seeded with price.
func NewMemory(price decimal.Decimal) *Memory {
	return &Memory{price: price}
}

func (m *Memory) GetOraclePrice(context.Context) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.price, nil
}

func (m *Memory) FundingRatePerSecond(context.Context) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.funding, nil
}

// SetOraclePrice updates the price a subsequent GetOraclePrice returns.
func (m *Memory) SetOraclePrice(price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.price = price
}

// SetFundingRate updates the rate a subsequent FundingRatePerSecond
// returns.
func (m *Memory) SetFundingRate(rate decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.funding = rate
}

var _ Port = (*Memory)(nil)
