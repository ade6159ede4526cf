package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"github.com/pushchain/push-bridge-core/bridgeCore/constant"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// EnvPrefix is prepended to environment overrides, e.g. PBRIDGE_QUERY_SERVER_PORT.
const EnvPrefix = "PBRIDGE"

//go:embed default_config.json
var defaultConfigJSON []byte

func validateConfig(cfg *Config) error {
	// Validate log level
	if cfg.LogLevel < 0 || cfg.LogLevel > 5 {
		return fmt.Errorf("log level must be between 0 and 5")
	}

	// Validate log format
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return fmt.Errorf("log format must be 'json' or 'console'")
	}

	// Set defaults for storage and query server
	if cfg.DatabaseFile == "" {
		cfg.DatabaseFile = "pbridge.db"
	}
	if cfg.QueryServerPort == 0 {
		cfg.QueryServerPort = 8080
	}

	// Set defaults for the confirmation window
	if cfg.ConfirmationWindowSeconds == 0 {
		cfg.ConfirmationWindowSeconds = 3
	}
	if cfg.ConfirmationWindowSeconds < 0 {
		return fmt.Errorf("confirmation window must be positive")
	}
	if cfg.QuorumStrategy == "" {
		cfg.QuorumStrategy = StrategyCount
	}
	if cfg.QuorumStrategy != StrategyCount && cfg.QuorumStrategy != StrategySignature {
		return fmt.Errorf("quorum strategy must be 'count' or 'signature'")
	}

	// Validate quorum policy
	if cfg.Quorum.MinConfirmations == 0 {
		return errorsmod.Wrap(types.ErrLowMinConfirmations, "min confirmations must be at least 1")
	}
	if cfg.Quorum.ExcessConfirmations == 0 {
		cfg.Quorum.ExcessConfirmations = cfg.Quorum.MinConfirmations
	}
	if cfg.Quorum.ExcessConfirmations < cfg.Quorum.MinConfirmations {
		return fmt.Errorf("excess confirmations must be at least min confirmations")
	}

	for _, admin := range cfg.Admins {
		if !common.IsHexAddress(admin) {
			return fmt.Errorf("admin %q is not a hex address", admin)
		}
	}

	// Initialize ChainConfigs if nil or empty
	if len(cfg.ChainConfigs) == 0 {
		var defaultCfg Config
		if err := json.Unmarshal(defaultConfigJSON, &defaultCfg); err == nil {
			cfg.ChainConfigs = defaultCfg.ChainConfigs
		} else {
			cfg.ChainConfigs = make(map[string]ChainSpecificConfig)
		}
	}
	reg, err := cfg.ChainRegistry()
	if err != nil {
		return err
	}
	if _, ok := reg[cfg.LocalChainID]; !ok {
		return fmt.Errorf("local chain %d has no chain config", cfg.LocalChainID)
	}
	if cfg.ExecutorProgram != "" {
		if _, err := types.ParseAddress(reg[cfg.LocalChainID], cfg.ExecutorProgram); err != nil {
			return fmt.Errorf("executor program: %w", err)
		}
	}
	if cfg.CallProxy != "" {
		if _, err := types.ParseAddress(reg[cfg.LocalChainID], cfg.CallProxy); err != nil {
			return fmt.Errorf("call proxy: %w", err)
		}
	}
	for key, chain := range cfg.ChainConfigs {
		family, _ := types.ParseChainFamily(chain.Family)
		if chain.OrderCounterpart != "" {
			if _, err := types.ParseAddress(family, chain.OrderCounterpart); err != nil {
				return fmt.Errorf("chain %s order counterpart: %w", key, err)
			}
		}
		for debridgeID, amount := range chain.AmountThresholds {
			if _, err := types.ParseAmount(amount); err != nil {
				return fmt.Errorf("chain %s threshold for %s: %w", key, debridgeID, err)
			}
		}
	}

	// Validate order settings
	if cfg.Orders.PercentFeeBps > types.BpsDenominator {
		return fmt.Errorf("percent fee must not exceed %d bps", types.BpsDenominator)
	}
	if _, err := cfg.Orders.FeePolicy(); err != nil {
		return err
	}
	if _, err := cfg.Orders.MinPatch(); err != nil {
		return err
	}

	// Set defaults for relayer retries
	if cfg.Relayer.MaxAttempts == 0 {
		cfg.Relayer.MaxAttempts = 5
	}
	if cfg.Relayer.InitialBackoffMs == 0 {
		cfg.Relayer.InitialBackoffMs = 500
	}
	if cfg.Relayer.MaxBackoffMs == 0 {
		cfg.Relayer.MaxBackoffMs = 10000
	}

	return nil
}

// Save writes the given config to <NodeDir>/config/pbridge_config.json.
func Save(cfg *Config, basePath string) error {
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	configDir := filepath.Join(basePath, constant.ConfigSubdir)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configDir, constant.ConfigFileName)
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load reads the config from <BasePath>/config/pbridge_config.json. Any key
// can be overridden from the environment with the PBRIDGE_ prefix.
func Load(basePath string) (Config, error) {
	configFile := filepath.Join(basePath, constant.ConfigSubdir, constant.ConfigFileName)

	v := viper.New()
	v.SetConfigFile(filepath.Clean(configFile))
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadDefaultConfig loads the default configuration from embedded JSON
func LoadDefaultConfig() (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(defaultConfigJSON, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default config: %w", err)
	}
	return &cfg, nil
}
