// Package config loads this repository's environment-driven
// configuration with spf13/viper bound directly to env vars, with an
// optional local .env file loaded via joho/godotenv for development —
// the same Load-then-Validate shape the example pack's market-making
// bot uses, adapted from YAML-plus-overrides to pure environment
// configuration since spec.md §6 names only env vars, no config file.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is every tunable this repository reads from the environment.
type Config struct {
	// Chain / settlement, per spec.md §6.
	RPCURL        string `mapstructure:"RPC_URL"`
	PrivateKey    string `mapstructure:"PRIVATE_KEY"`
	OracleAddress string `mapstructure:"ORACLE_ADDRESS"`
	PerpsAddress  string `mapstructure:"PERPS_ADDRESS"`
	OracleABIPath string `mapstructure:"ORACLE_ABI_PATH"`
	PerpsABIPath  string `mapstructure:"PERPS_ABI_PATH"`
	ChainID       int64  `mapstructure:"CHAIN_ID"`
	MarketName    string `mapstructure:"MARKET_NAME"`

	// HTTP surface.
	HTTPAddr  string `mapstructure:"HTTP_ADDR"`
	JWTSecret string `mapstructure:"JWT_SECRET"`
	JWTIssuer string `mapstructure:"JWT_ISSUER"`

	// Risk loop. MaintenanceThreshold is loaded but nothing reads it: the
	// risk loop always uses the risk.MaintenanceThreshold constant.
	RiskCadence         time.Duration `mapstructure:"RISK_CADENCE"`
	MaintenanceThreshold string       `mapstructure:"MAINTENANCE_THRESHOLD"`

	// Keepers.
	KeeperOraclePollInterval  time.Duration `mapstructure:"KEEPER_ORACLE_POLL_INTERVAL"`
	KeeperFundingPollInterval time.Duration `mapstructure:"KEEPER_FUNDING_POLL_INTERVAL"`
	CoreBaseURL               string        `mapstructure:"CORE_BASE_URL"`
	ExternalOracleURL         string        `mapstructure:"EXTERNAL_ORACLE_URL"`
	ExternalOraclePath        string        `mapstructure:"EXTERNAL_ORACLE_PATH"`

	// Storage.
	SQLitePath string `mapstructure:"SQLITE_PATH"`

	// Notification.
	TelegramToken  string `mapstructure:"TELEGRAM_TOKEN"`
	TelegramChatID int64  `mapstructure:"TELEGRAM_CHAT_ID"`

	// UseChainSettlement selects the chain-backed settlement/oracle
	// adapters instead of the in-memory ones used for local dev/tests.
	UseChainSettlement bool `mapstructure:"USE_CHAIN_SETTLEMENT"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("MARKET_NAME", "DEFAULT-MARKET")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("JWT_ISSUER", "predictperp")
	v.SetDefault("RISK_CADENCE", 5*time.Second)
	v.SetDefault("MAINTENANCE_THRESHOLD", "-0.80")
	v.SetDefault("KEEPER_ORACLE_POLL_INTERVAL", time.Hour)
	v.SetDefault("KEEPER_FUNDING_POLL_INTERVAL", 30*time.Second)
	v.SetDefault("CORE_BASE_URL", "http://localhost:8080")
	v.SetDefault("SQLITE_PATH", "data/predictperp.db")
	v.SetDefault("CHAIN_ID", int64(1))
	v.SetDefault("USE_CHAIN_SETTLEMENT", false)
}

// Load reads configuration from the process environment, optionally
// seeded by a .env file at envPath (missing file is not an error, mirroring
// godotenv's typical "fine in production" usage).
func Load(envPath string) (*Config, error) {
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	for _, key := range []string{
		"RPC_URL", "PRIVATE_KEY", "ORACLE_ADDRESS", "PERPS_ADDRESS",
		"ORACLE_ABI_PATH", "PERPS_ABI_PATH", "CHAIN_ID", "MARKET_NAME",
		"HTTP_ADDR", "JWT_SECRET", "JWT_ISSUER",
		"RISK_CADENCE", "MAINTENANCE_THRESHOLD",
		"KEEPER_ORACLE_POLL_INTERVAL", "KEEPER_FUNDING_POLL_INTERVAL", "CORE_BASE_URL",
		"EXTERNAL_ORACLE_URL", "EXTERNAL_ORACLE_PATH",
		"SQLITE_PATH", "TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID", "USE_CHAIN_SETTLEMENT",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// ValidateForChain checks the fields the chain-backed settlement/oracle
// adapters require. Call this only when UseChainSettlement is true; the
// in-memory adapters used for local dev need none of these.
func (c *Config) ValidateForChain() error {
	if c.RPCURL == "" {
		return fmt.Errorf("RPC_URL is required")
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("PRIVATE_KEY is required")
	}
	if c.OracleAddress == "" {
		return fmt.Errorf("ORACLE_ADDRESS is required")
	}
	if c.PerpsAddress == "" {
		return fmt.Errorf("PERPS_ADDRESS is required")
	}
	return nil
}
