// Package notify implements the liquidation alert port fired by the
// risk loop after every successful liquidation acknowledgment. It is
// fire-and-forget and best-effort: an adapter's failure never affects
// the sweep that triggered it.
package notify

import "predictperp/internal/position"

// Port is the liquidation notification surface.
type Port interface {
	NotifyLiquidation(account string, positions []*position.Position)
}

// Memory records every notification for tests.
type Memory struct {
	Events []Event
}

// Event is one recorded liquidation notification.
type Event struct {
	Account   string
	Positions []*position.Position
}

func (m *Memory) NotifyLiquidation(account string, positions []*position.Position) {
	m.Events = append(m.Events, Event{Account: account, Positions: positions})
}

var _ Port = (*Memory)(nil)
