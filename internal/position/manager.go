package position

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"predictperp/internal/clock"
	"predictperp/internal/errs"
	"predictperp/internal/side"
)

var (
	zero              = decimal.Zero
	liquidationBPSMul = decimal.NewFromInt(LiquidationRewardBPS).Div(decimal.NewFromInt(10000))
)

// Manager owns every Account and Position for a single market. Its
// accounts map is shared between the matching path (create/close on
// fills) and the risk loop (liquidation sweep); both take mu per
// spec.md §9's explicit warning against naive unlocked iteration.
type Manager struct {
	mu sync.RWMutex

	market     string
	accounts   map[string]*Account
	nextPosID  uint64
	settlement Settlement
	oracle     Oracle
	book       BookView
	trades     TradeSource
	clock      clock.Clock
	sink       Sink
}

// New creates a position manager for market. settlement, oracle, book,
// trades, and clk are all explicit ports; none may be nil.
func New(market string, settlement Settlement, oracle Oracle, book BookView, trades TradeSource, clk clock.Clock) *Manager {
	return &Manager{
		market:     market,
		accounts:   make(map[string]*Account),
		settlement: settlement,
		oracle:     oracle,
		book:       book,
		trades:     trades,
		clock:      clk,
		sink:       noopSink{},
	}
}

// SetSink attaches a persistence mirror. Passing nil restores the no-op
// sink.
func (m *Manager) SetSink(sink Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sink == nil {
		sink = noopSink{}
	}
	m.sink = sink
}

// RegisterAccount ensures an Account exists for address. Idempotent:
// calling it k >= 1 times is equivalent to calling it once.
func (m *Manager) RegisterAccount(address string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[address]; !ok {
		m.accounts[address] = &Account{ID: address}
	}
}

func (m *Manager) mustAccount(address string) (*Account, error) {
	acct, ok := m.accounts[address]
	if !ok {
		return nil, errs.Validationf("account not registered: %s", address)
	}
	return acct, nil
}

// CreatePosition appends a new OPEN position with a fresh monotonic id.
// Fails if the account has not been registered, or if it already holds
// an OPEN position in this market.
func (m *Manager) CreatePosition(trader string, s side.Side, entryPrice, quantity decimal.Decimal, leverage uint32, margin decimal.Decimal) (*Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, err := m.mustAccount(trader)
	if err != nil {
		return nil, err
	}
	if existing := acct.openPosition(m.market); existing != nil {
		return nil, errs.Statef("%s already has open position %d in %s", trader, existing.ID, m.market)
	}

	m.nextPosID++
	pos := &Position{
		ID:         m.nextPosID,
		Account:    trader,
		Market:     m.market,
		Side:       s,
		EntryPrice: entryPrice,
		Quantity:   quantity,
		Leverage:   leverage,
		Margin:     margin,
		Status:     StatusOpen,
		OpenedAt:   m.clock.Now(),
	}
	acct.Positions = append(acct.Positions, pos)

	m.sink.Mirror(*pos)
	return pos, nil
}

// ClosePosition closes quantity of trader's single OPEN position in
// this market at close_price, realizing PnL on the closed portion using
// the margin×leverage notional formula (not quantity×entry — spec.md §9
// requires this exactly).
func (m *Manager) ClosePosition(trader string, quantity, closePrice decimal.Decimal) (*Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, err := m.mustAccount(trader)
	if err != nil {
		return nil, err
	}

	pos := acct.openPosition(m.market)
	if pos == nil {
		return nil, errs.Statef("no open position for %s in %s", trader, m.market)
	}
	if quantity.GreaterThan(pos.Quantity) {
		return nil, errs.Validationf("quantity %s exceeds open position quantity %s", quantity.String(), pos.Quantity.String())
	}

	notional := pos.Margin.Mul(decimal.NewFromInt32(int32(pos.Leverage)))
	var diff decimal.Decimal
	if pos.Side == side.Buy {
		diff = closePrice.Sub(pos.EntryPrice)
	} else {
		diff = pos.EntryPrice.Sub(closePrice)
	}
	realized := diff.Mul(notional)
	pos.RealizedPnL = pos.RealizedPnL.Add(realized)

	switch {
	case quantity.Equal(pos.Quantity):
		pos.Quantity = zero
		pos.Status = StatusClosed
		pos.ClosedAt = m.clock.Now()
	default:
		pos.Quantity = pos.Quantity.Sub(quantity)
	}

	m.sink.Mirror(*pos)
	return pos, nil
}

// UpdateUnrealizedPnL recomputes and stores pos.UnrealizedPnL against
// the current mark price. pos must be OPEN.
func (m *Manager) UpdateUnrealizedPnL(ctx context.Context, pos *Position) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pos.Status != StatusOpen {
		return zero, errs.Statef("position %d is not open", pos.ID)
	}

	mark, err := m.GetMarkPrice(ctx)
	if err != nil {
		return zero, err
	}

	var diff decimal.Decimal
	if pos.Side == side.Buy {
		diff = mark.Sub(pos.EntryPrice)
	} else {
		diff = pos.EntryPrice.Sub(mark)
	}
	if pos.EntryPrice.IsZero() {
		return zero, errs.Validationf("position %d has zero entry price", pos.ID)
	}
	pct := diff.Div(pos.EntryPrice)
	notional := decimal.NewFromInt32(int32(pos.Leverage)).Mul(pos.Margin)
	pos.UnrealizedPnL = pct.Mul(notional)
	return pos.UnrealizedPnL, nil
}

// GetMarkPrice derives the perp mark price: last trade, else best
// bid/ask midpoint, else the external oracle index. The last-trade
// branch intentionally ignores staleness, per spec.md §9.
func (m *Manager) GetMarkPrice(ctx context.Context) (decimal.Decimal, error) {
	if last, ok := m.trades.Last(); ok {
		return last.Price, nil
	}
	if bid, ok := m.book.BestBid(); ok {
		if ask, ok := m.book.BestAsk(); ok {
			return bid.Add(ask).Div(decimal.NewFromInt(2)), nil
		}
	}
	return m.GetOraclePrice(ctx)
}

// GetOraclePrice reads the external index price through the oracle
// port.
func (m *Manager) GetOraclePrice(ctx context.Context) (decimal.Decimal, error) {
	price, err := m.oracle.GetOraclePrice(ctx)
	if err != nil {
		return zero, errs.Wrap(errs.External, "oracle read failed", err)
	}
	return price, nil
}

// LiquidatePosition issues the settlement liquidation instruction for
// trader's account; on acknowledgment every OPEN position of that
// account in this market is marked LIQUIDATED, a liquidator reward is
// computed from remaining margin, and a close timestamp is stamped. If
// settlement rejects, Position state is left untouched.
func (m *Manager) LiquidatePosition(ctx context.Context, trader string) ([]*Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, err := m.mustAccount(trader)
	if err != nil {
		return nil, err
	}

	if err := m.settlement.Liquidate(ctx, trader); err != nil {
		return nil, errs.Wrap(errs.External, "settlement liquidation rejected", err)
	}

	var liquidated []*Position
	now := m.clock.Now()
	for _, pos := range acct.Positions {
		if pos.Market != m.market || pos.Status != StatusOpen {
			continue
		}
		pos.LiquidatorReward = pos.Margin.Mul(liquidationBPSMul)
		pos.Status = StatusLiquidated
		pos.ClosedAt = now
		liquidated = append(liquidated, pos)
		m.sink.Mirror(*pos)
	}
	return liquidated, nil
}

// ListPositions returns the full lifetime position history for trader,
// oldest first. Returns nil if the account is not registered.
func (m *Manager) ListPositions(trader string) []*Position {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, ok := m.accounts[trader]
	if !ok {
		return nil
	}
	out := make([]*Position, len(acct.Positions))
	copy(out, acct.Positions)
	return out
}

// OpenPositions returns every currently-OPEN position across all
// accounts, a snapshot taken under the read lock. The risk loop iterates
// this slice rather than the live map, per spec.md §9's naive-iteration
// warning.
func (m *Manager) OpenPositions() []*Position {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Position
	for _, acct := range m.accounts {
		for _, pos := range acct.Positions {
			if pos.Status == StatusOpen {
				out = append(out, pos)
			}
		}
	}
	return out
}
