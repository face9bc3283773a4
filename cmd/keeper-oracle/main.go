// Command keeper-oracle is the external oracle-updater poller spec.md
// §6 describes: on a long cadence it reads an external index price and
// pushes it onto the settlement contract's oracle. It never links
// against the exchange binary; it only holds a settlement.Port, per
// spec.md §2's "external collaborators" split.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"predictperp/internal/config"
	chainsettlement "predictperp/internal/settlement/chain"
	"predictperp/internal/keeper"
)

// devIndexPrice seeds the static fallback source used when no
// EXTERNAL_ORACLE_URL is configured, matching cmd/exchange's own
// devOraclePrice stand-in for a real feed.
var devIndexPrice = decimal.NewFromFloat(0.5)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("keeper-oracle: load config")
	}
	if err := cfg.ValidateForChain(); err != nil {
		log.Fatal().Err(err).Msg("keeper-oracle: requires chain settlement configuration")
	}

	oracleABI, err := os.ReadFile(cfg.OracleABIPath)
	if err != nil {
		log.Fatal().Err(err).Msg("keeper-oracle: read oracle ABI")
	}
	perpsABI, err := os.ReadFile(cfg.PerpsABIPath)
	if err != nil {
		log.Fatal().Err(err).Msg("keeper-oracle: read perps ABI")
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
		log.Fatal().Err(err).Msg("keeper-oracle: dial chain settlement")
	}

	var source keeper.IndexSource
	if cfg.ExternalOracleURL != "" {
		source = keeper.NewRestyIndexSource(cfg.ExternalOracleURL, cfg.ExternalOraclePath)
	} else {
		log.Warn().Msg("keeper-oracle: EXTERNAL_ORACLE_URL unset, using static dev index price")
		source = keeper.StaticIndexSource{Price: devIndexPrice}
	}

	loop := keeper.NewOracleLoop(source, client, cfg.KeeperOraclePollInterval)
	if err := loop.Run(ctx); err != nil {
		log.Error().Err(err).Msg("keeper-oracle: loop exited")
	}
}
