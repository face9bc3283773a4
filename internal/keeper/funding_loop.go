package keeper

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"predictperp/internal/settlement"
)

// FundingLoop polls this core's own /perp_price and /oracle_price on a
// short cadence, derives the funding rate `(perp - oracle) / oracle`
// per spec.md §6's GLOSSARY, and pushes both the rate and the perp
// price onto the settlement contract.
type FundingLoop struct {
	core     *CoreClient
	settle   settlement.Port
	interval time.Duration
}

// NewFundingLoop builds the funding-push loop. A zero interval
// defaults to 30 seconds, inside spec.md §6's "seconds to minutes in
// development" range.
func NewFundingLoop(core *CoreClient, settle settlement.Port, interval time.Duration) *FundingLoop {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &FundingLoop{core: core, settle: settle, interval: interval}
}

// Run blocks, pushing on the loop's interval until ctx is cancelled.
func (l *FundingLoop) Run(ctx context.Context) error {
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

func (l *FundingLoop) tick(ctx context.Context) {
	perp, err := l.core.PerpPrice(ctx)
	if err != nil {
		log.Error().Err(err).Msg("keeper-funding: fetch perp price failed")
		return
	}
	oracleIdx, err := l.core.OraclePrice(ctx)
	if err != nil {
		log.Error().Err(err).Msg("keeper-funding: fetch oracle price failed")
		return
	}
	if oracleIdx.IsZero() {
		log.Error().Msg("keeper-funding: oracle price is zero, skipping funding update")
		return
	}

	rate := perp.Sub(oracleIdx).Div(oracleIdx)

	if err := l.settle.UpdatePerp(ctx, perp); err != nil {
		log.Error().Err(err).Str("perp", perp.String()).Msg("keeper-funding: update perp rejected")
		return
	}
	if err := l.settle.UpdateFunding(ctx, rate); err != nil {
		log.Error().Err(err).Str("rate", rate.String()).Msg("keeper-funding: update funding rejected")
		return
	}
	log.Info().Str("perp", perp.String()).Str("oracle", oracleIdx.String()).Str("rate", rate.String()).Msg("keeper-funding: funding updated")
}
