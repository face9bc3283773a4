// Package risk implements the periodic mark-to-market and liquidation
// sweep that binds the order book, position manager, and oracle
// together, per spec.md §4.4. It is structured after the teacher's
// tomb-supervised server loop (internal/net/server.go's sessionHandler)
// generalized from a connection-accept loop to a fixed-cadence sweep.
package risk

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"predictperp/internal/position"
)

// MaintenanceThreshold is the unrealized_pnl/margin ratio below which a
// position is liquidated. Strictly less than, per spec.md §8 scenario 7:
// exactly -0.80 does not trigger.
const MaintenanceThreshold = "-0.80"

// Notifier is fired once per liquidated account after a successful
// liquidation acknowledgment. It must never block the sweep; adapters
// should return quickly or hand off internally.
type Notifier interface {
	NotifyLiquidation(account string, positions []*position.Position)
}

type noopNotifier struct{}

func (noopNotifier) NotifyLiquidation(string, []*position.Position) {}

// Loop owns the fixed-cadence liquidation sweep for one market's
// position manager.
type Loop struct {
	manager  *position.Manager
	cadence  time.Duration
	notifier Notifier
}

// New creates a sweep loop over manager at cadence. A zero cadence
// defaults to the spec's 5 second tunable.
func New(manager *position.Manager, cadence time.Duration, notifier Notifier) *Loop {
	if cadence <= 0 {
		cadence = 5 * time.Second
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Loop{manager: manager, cadence: cadence, notifier: notifier}
}

// Run blocks, sweeping on Loop's cadence until ctx is cancelled. It is
// cooperatively cancellable at the end of each sweep, per spec.md §5.
func (l *Loop) Run(ctx context.Context) error {
	t, ctx := tomb.WithContext(ctx)
	t.Go(func() error {
		ticker := time.NewTicker(l.cadence)
		defer ticker.Stop()

		for {
			select {
			case <-t.Dying():
				return nil
			case <-ticker.C:
				l.sweep(ctx)
			}
		}
	})
	return t.Wait()
}

// sweep walks a point-in-time snapshot of open positions. Errors on a
// single position are logged and skipped; they must never abort the
// sweep, per spec.md §4.4.
func (l *Loop) sweep(ctx context.Context) {
	positions := l.manager.OpenPositions()
	for _, pos := range positions {
		pnl, err := l.manager.UpdateUnrealizedPnL(ctx, pos)
		if err != nil {
			log.Error().Err(err).Uint64("position_id", pos.ID).Str("account", pos.Account).Msg("risk sweep: unrealized pnl refresh failed")
			continue
		}

		if !breachesMaintenance(pnl, pos.Margin) {
			continue
		}

		liquidated, err := l.manager.LiquidatePosition(ctx, pos.Account)
		if err != nil {
			log.Error().Err(err).Str("account", pos.Account).Msg("risk sweep: liquidation rejected")
			continue
		}
		if len(liquidated) > 0 {
			l.notifier.NotifyLiquidation(pos.Account, liquidated)
		}
	}
}
