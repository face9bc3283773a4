// Command keeper-funding is the funding/perp-price updater poller
// spec.md §6 describes: on a short cadence it reads this core's own
// /perp_price and /oracle_price, derives a funding rate, and pushes
// both the rate and the perp price onto the settlement contract.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"predictperp/internal/config"
	"predictperp/internal/keeper"
	chainsettlement "predictperp/internal/settlement/chain"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("keeper-funding: load config")
	}
	if err := cfg.ValidateForChain(); err != nil {
		log.Fatal().Err(err).Msg("keeper-funding: requires chain settlement configuration")
	}

	oracleABI, err := os.ReadFile(cfg.OracleABIPath)
	if err != nil {
		log.Fatal().Err(err).Msg("keeper-funding: read oracle ABI")
	}
	perpsABI, err := os.ReadFile(cfg.PerpsABIPath)
	if err != nil {
		log.Fatal().Err(err).Msg("keeper-funding: read perps ABI")
	}

	client, err := chainsettlement.Dial(ctx, chainsettlement.Config{
		RPCURL:        cfg.RPCURL,
		PrivateKeyHex: cfg.PrivateKey,
		OracleAddress: cfg.OracleAddress,
		PerpsAddress:  cfg.PerpsAddress,
		OracleABIJSON: string(oracleABI),
		PerpsABIJSON:  string(perpsABI),
		ChainID:       cfg.ChainID,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("keeper-funding: dial chain settlement")
	}

	core := keeper.NewCoreClient(cfg.CoreBaseURL)
	loop := keeper.NewFundingLoop(core, client, cfg.KeeperFundingPollInterval)
	if err := loop.Run(ctx); err != nil {
		log.Error().Err(err).Msg("keeper-funding: loop exited")
	}
}
