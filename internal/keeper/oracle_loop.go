package keeper

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"predictperp/internal/settlement"
)

// OracleLoop pushes an external index price onto the settlement
// contract on a long cadence, per spec.md §6's oracle-updater keeper.
// Structured after risk.Loop's tomb-supervised ticker.
type OracleLoop struct {
	source   IndexSource
	settle   settlement.Port
	interval time.Duration
}

// NewOracleLoop builds the oracle-push loop. A zero interval defaults
// to one hour, matching spec.md §6's "hours" production cadence.
func NewOracleLoop(source IndexSource, settle settlement.Port, interval time.Duration) *OracleLoop {
	if interval <= 0 {
		interval = time.Hour
	}
	return &OracleLoop{source: source, settle: settle, interval: interval}
}

// Run blocks, pushing on the loop's interval until ctx is cancelled.
func (l *OracleLoop) Run(ctx context.Context) error {
	t, ctx := tomb.WithContext(ctx)
	t.Go(func() error {
		l.tick(ctx)
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.Dying():
				return nil
			case <-ticker.C:
				l.tick(ctx)
			}
		}
	})
	return t.Wait()
}

func (l *OracleLoop) tick(ctx context.Context) {
	price, err := l.source.FetchIndexPrice(ctx)
	if err != nil {
		log.Error().Err(err).Msg("keeper-oracle: fetch index price failed")
		return
	}
	if err := l.settle.UpdateOracle(ctx, price); err != nil {
		log.Error().Err(err).Str("price", price.String()).Msg("keeper-oracle: update oracle rejected")
		return
	}
	log.Info().Str("price", price.String()).Msg("keeper-oracle: oracle updated")
}
