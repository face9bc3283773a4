// Command exchange runs the off-chain matching core: the HTTP surface,
// the risk sweep, and the settlement/oracle adapters selected by
// config. Startup follows the teacher's cmd/main.go shape (signal-
// notify context, construct dependencies, run, block on ctx.Done());
// the teacher's second, near-duplicate cmd/server/server.go entrypoint
// is not carried forward (see DESIGN.md).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"predictperp/internal/clock"
	"predictperp/internal/config"
	"predictperp/internal/engine"
	"predictperp/internal/httpapi"
	"predictperp/internal/notify"
	"predictperp/internal/oracle"
	"predictperp/internal/risk"
	"predictperp/internal/settlement"
	chainsettlement "predictperp/internal/settlement/chain"
	"predictperp/internal/storage"
	"predictperp/internal/tradelog"
	"predictperp/internal/workerpool"
)

// oracleTTL bounds how long the chain-backed oracle adapter serves a
// cached index price before refetching, per SPEC_FULL.md §4.7.
const oracleTTL = 10 * time.Second

// devOraclePrice seeds the in-memory oracle/settlement adapters used
// for local development, where no real index price feed exists yet.
var devOraclePrice = decimal.NewFromFloat(0.5)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("exchange: load config")
	}

	settle, orcl := buildAdapters(ctx, cfg)

	pool := workerpool.New(8)
	pool.Start(ctx)
	defer pool.Stop()

	eng := engine.Build(cfg.MarketName, settle, orcl, clock.Real{}, pool)

	store, err := storage.New(cfg.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Msg("exchange: open storage")
	}
	eng.Positions.SetSink(store.PositionSink())

	httpSrv := httpapi.New(httpapi.Config{
		Addr:      cfg.HTTPAddr,
		JWTSecret: cfg.JWTSecret,
		JWTIssuer: cfg.JWTIssuer,
	}, eng)
	eng.Trades.SetSink(tradelog.MultiSink{store, httpSrv.TradeSink()})

	notifier, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		log.Fatal().Err(err).Msg("exchange: configure telegram notifier")
	}
	var riskNotifier risk.Notifier
	if notifier != nil {
		riskNotifier = notifier
	}
	riskLoop := risk.New(eng.Positions, cfg.RiskCadence, riskNotifier)

	go func() {
		if err := riskLoop.Run(ctx); err != nil {
			log.Error().Err(err).Msg("exchange: risk loop exited")
		}
	}()

	go func() {
		if err := httpSrv.Start(); err != nil {
			log.Error().Err(err).Msg("exchange: http server exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("exchange: shutting down")
	if err := httpSrv.Stop(); err != nil {
		log.Error().Err(err).Msg("exchange: http server shutdown")
	}
}

// buildAdapters picks the in-memory settlement/oracle pair for local
// development, or the chain-backed pair when cfg.UseChainSettlement is
// set, per SPEC_FULL.md §4.6/§4.7.
func buildAdapters(ctx context.Context, cfg *config.Config) (settlement.Port, oracle.Port) {
	if !cfg.UseChainSettlement {
		return settlement.NewMemory(devOraclePrice), oracle.NewMemory(devOraclePrice)
	}

	if err := cfg.ValidateForChain(); err != nil {
		log.Fatal().Err(err).Msg("exchange: chain settlement config")
	}

	oracleABI, err := os.ReadFile(cfg.OracleABIPath)
	if err != nil {
		log.Fatal().Err(err).Msg("exchange: read oracle ABI")
	}
	perpsABI, err := os.ReadFile(cfg.PerpsABIPath)
	if err != nil {
		log.Fatal().Err(err).Msg("exchange: read perps ABI")
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
		log.Fatal().Err(err).Msg("exchange: dial chain settlement")
	}

	cachedOracle := oracle.NewCache(client, oracleTTL, clock.Real{})
	return client, cachedOracle
}
