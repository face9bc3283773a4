// Package chain is the go-ethereum-backed settlement adapter: it signs
// and submits the settlement port's RPCs against a real perpetuals
// contract, and reads the oracle price and funding rate back. Key
// loading follows the same crypto.HexToECDSA + PubkeyToAddress shape
// the example pack's execution clients use for their wallets.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"predictperp/internal/settlement"
)

// Config carries everything the adapter needs to dial the chain and
// sign transactions, matching the environment variables spec.md §6
// names: RPC_URL, PRIVATE_KEY, ORACLE_ADDRESS, PERPS_ADDRESS.
type Config struct {
	RPCURL         string
	PrivateKeyHex  string
	OracleAddress  string
	PerpsAddress   string
	OracleABIJSON  string
	PerpsABIJSON   string
	ChainID        int64
}

// Client is the production settlement.Port implementation.
type Client struct {
	eth        *ethclient.Client
	signer     *bind.TransactOpts
	perpsAddr  common.Address
	oracleAddr common.Address
	perpsABI   abi.ABI
	oracleABI  abi.ABI
}

// Dial connects to cfg.RPCURL, loads the signing key, and parses both
// contract ABIs.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	keyHex := strings.TrimPrefix(cfg.PrivateKeyHex, "0x")
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	signer, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(cfg.ChainID))
	if err != nil {
		return nil, fmt.Errorf("build signer: %w", err)
	}

	perpsABI, err := abi.JSON(strings.NewReader(cfg.PerpsABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse perps abi: %w", err)
	}
	oracleABI, err := abi.JSON(strings.NewReader(cfg.OracleABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse oracle abi: %w", err)
	}

	return &Client{
		eth:        eth,
		signer:     signer,
		perpsAddr:  common.HexToAddress(cfg.PerpsAddress),
		oracleAddr: common.HexToAddress(cfg.OracleAddress),
		perpsABI:   perpsABI,
		oracleABI:  oracleABI,
	}, nil
}

func (c *Client) callPerps(ctx context.Context, method string, args ...any) error {
	bound := bind.NewBoundContract(c.perpsAddr, c.perpsABI, c.eth, c.eth, c.eth)
	tx, err := bound.Transact(c.signer, method, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	log.Info().Str("method", method).Str("tx", tx.Hash().Hex()).Msg("settlement: submitted")
	return nil
}

func (c *Client) OpenPosition(ctx context.Context, trader string, margin decimal.Decimal, leverage uint32, isBuy bool, entryPrice decimal.Decimal) error {
	return c.callPerps(ctx, "openPosition",
		big.NewInt(settlement.ScalePrice(margin)),
		big.NewInt(int64(leverage)),
		isBuy,
		big.NewInt(settlement.ScalePrice(entryPrice)),
	)
}

func (c *Client) ClosePosition(ctx context.Context, trader string, exitPrice decimal.Decimal) error {
	return c.callPerps(ctx, "closePosition", common.HexToAddress(trader), big.NewInt(settlement.ScalePrice(exitPrice)))
}

func (c *Client) AddLimitOrder(ctx context.Context, trader string, leverage uint32, margin, price, quantity decimal.Decimal, isBuy bool) error {
	return c.callPerps(ctx, "addLimitOrder",
		big.NewInt(int64(leverage)),
		big.NewInt(settlement.ScalePrice(margin)),
		big.NewInt(settlement.ScalePrice(price)),
		quantity.BigInt(),
		isBuy,
	)
}

func (c *Client) CloseLimitOrder(ctx context.Context, trader string) error {
	return c.callPerps(ctx, "closeLimitOrder")
}

func (c *Client) FillLimitOrder(ctx context.Context, trader string, quantity decimal.Decimal) error {
	return c.callPerps(ctx, "fillLimitOrder", common.HexToAddress(trader), quantity.BigInt())
}

func (c *Client) Liquidate(ctx context.Context, trader string) error {
	return c.callPerps(ctx, "liquidate", common.HexToAddress(trader))
}

func (c *Client) GetOraclePrice(ctx context.Context) (decimal.Decimal, error) {
	bound := bind.NewBoundContract(c.oracleAddr, c.oracleABI, c.eth, c.eth, c.eth)
	var out []any
	if err := bound.Call(&bind.CallOpts{Context: ctx}, &out, "getOraclePrice"); err != nil {
		return decimal.Zero, fmt.Errorf("getOraclePrice: %w", err)
	}
	scaled, ok := out[0].(*big.Int)
	if !ok {
		return decimal.Zero, fmt.Errorf("getOraclePrice: unexpected return type")
	}
	return settlement.UnscalePrice(scaled.Int64()), nil
}

func (c *Client) FundingRatePerSecond(ctx context.Context) (decimal.Decimal, error) {
	bound := bind.NewBoundContract(c.perpsAddr, c.perpsABI, c.eth, c.eth, c.eth)
	var out []any
	if err := bound.Call(&bind.CallOpts{Context: ctx}, &out, "fundingRatePerSecond"); err != nil {
		return decimal.Zero, fmt.Errorf("fundingRatePerSecond: %w", err)
	}
	scaled, ok := out[0].(*big.Int)
	if !ok {
		return decimal.Zero, fmt.Errorf("fundingRatePerSecond: unexpected return type")
	}
	return settlement.UnscaleFunding(scaled.Int64()), nil
}

func (c *Client) UpdateOracle(ctx context.Context, price decimal.Decimal) error {
	bound := bind.NewBoundContract(c.oracleAddr, c.oracleABI, c.eth, c.eth, c.eth)
	tx, err := bound.Transact(c.signer, "updateOracle", big.NewInt(settlement.ScalePrice(price)))
	if err != nil {
		return fmt.Errorf("updateOracle: %w", err)
	}
	log.Info().Str("tx", tx.Hash().Hex()).Msg("settlement: oracle updated")
	return nil
}

func (c *Client) UpdatePerp(ctx context.Context, price decimal.Decimal) error {
	return c.callPerps(ctx, "updatePerp", big.NewInt(settlement.ScalePrice(price)))
}

func (c *Client) UpdateFunding(ctx context.Context, rate decimal.Decimal) error {
	return c.callPerps(ctx, "updateFunding", big.NewInt(settlement.ScaleFunding(rate)))
}

var _ settlement.Port = (*Client)(nil)
