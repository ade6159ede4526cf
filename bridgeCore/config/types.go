package config

import (
	"fmt"
	"strconv"

	"cosmossdk.io/math"

	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// Quorum strategies
const (
	StrategyCount     = "count"
	StrategySignature = "signature"
)

type Config struct {
	// Log Config
	LogLevel   int    `json:"log_level" mapstructure:"log_level"`     // e.g., 0 = debug, 1 = info, etc.
	LogFormat  string `json:"log_format" mapstructure:"log_format"`   // "json" or "console"
	LogSampler bool   `json:"log_sampler" mapstructure:"log_sampler"` // if true, samples logs (e.g., 1 in 5)

	// Node Config
	NodeHome     string `json:"node_home" mapstructure:"node_home"`         // Node home directory (default: ~/.pbridge)
	DatabaseFile string `json:"database_file" mapstructure:"database_file"` // SQLite file under <home>/databases (default: pbridge.db)

	// Query Server Config
	QueryServerPort int  `json:"query_server_port" mapstructure:"query_server_port"` // Port for HTTP query server (default: 8080)
	MetricsEnabled  bool `json:"metrics_enabled" mapstructure:"metrics_enabled"`     // Serve /metrics on the query server

	// Registry bootstrap
	Admins       []string     `json:"admins" mapstructure:"admins"`                 // Registry admin addresses (hex)
	LocalChainID uint64       `json:"local_chain_id" mapstructure:"local_chain_id"` // Chain id this coordinator settles on
	Quorum       QuorumConfig `json:"quorum" mapstructure:"quorum"`                 // Initial quorum policy

	// Confirmation Config
	ConfirmationWindowSeconds int    `json:"confirmation_window_seconds" mapstructure:"confirmation_window_seconds"` // Flood window length (default: 3)
	QuorumStrategy            string `json:"quorum_strategy" mapstructure:"quorum_strategy"`                         // "count" or "signature"

	// Claim provenance
	ExecutorProgram string `json:"executor_program" mapstructure:"executor_program"` // Program identity claims must originate from
	CallProxy       string `json:"call_proxy" mapstructure:"call_proxy"`             // Only caller allowed to deliver claims

	// Unified per-chain configuration
	ChainConfigs map[string]ChainSpecificConfig `json:"chain_configs" mapstructure:"chain_configs"` // Map of chain ID to chain-specific settings

	Orders  OrderConfig `json:"orders" mapstructure:"orders"`
	Relayer RetryConfig `json:"relayer" mapstructure:"relayer"`
}

// QuorumConfig is the initial quorum policy written on first start.
type QuorumConfig struct {
	MinConfirmations      uint32 `json:"min_confirmations" mapstructure:"min_confirmations"`
	ConfirmationThreshold uint32 `json:"confirmation_threshold" mapstructure:"confirmation_threshold"`
	ExcessConfirmations   uint32 `json:"excess_confirmations" mapstructure:"excess_confirmations"`
}

// ChainSpecificConfig holds all chain-specific configuration in one place
type ChainSpecificConfig struct {
	Family           string            `json:"family" mapstructure:"family"`                                 // "evm" or "solana"
	OrderCounterpart string            `json:"order_counterpart,omitempty" mapstructure:"order_counterpart"` // Native sender expected on order claims from this chain
	AmountThresholds map[string]string `json:"amount_thresholds,omitempty" mapstructure:"amount_thresholds"` // debridge id -> amount needing excess confirmations
}

// OrderConfig is the order fee schedule and feature switches.
type OrderConfig struct {
	FixFee               string `json:"fix_fee" mapstructure:"fix_fee"`
	PercentFeeBps        uint64 `json:"percent_fee_bps" mapstructure:"percent_fee_bps"`
	MinPatchAmount       string `json:"min_patch_amount" mapstructure:"min_patch_amount"`
	ExternalCallEnabled  bool   `json:"external_call_enabled" mapstructure:"external_call_enabled"`
	RefundFixFeeOnCancel bool   `json:"refund_fix_fee_on_cancel" mapstructure:"refund_fix_fee_on_cancel"`
}

// RetryConfig controls how relayer commands resubmit.
type RetryConfig struct {
	MaxAttempts      int `json:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `json:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `json:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// GetChainConfig returns the configuration of chainID, or nil.
func (c *Config) GetChainConfig(chainID uint64) *ChainSpecificConfig {
	if c.ChainConfigs == nil {
		return nil
	}
	cfg, ok := c.ChainConfigs[strconv.FormatUint(chainID, 10)]
	if !ok {
		return nil
	}
	return &cfg
}

// ChainRegistry builds the chain id -> address family table.
func (c *Config) ChainRegistry() (types.ChainRegistry, error) {
	reg := make(types.ChainRegistry, len(c.ChainConfigs))
	for key, chain := range c.ChainConfigs {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("chain config key %q is not a chain id", key)
		}
		family, err := types.ParseChainFamily(chain.Family)
		if err != nil {
			return nil, fmt.Errorf("chain %s: %w", key, err)
		}
		reg[id] = family
	}
	return reg, nil
}

// FeePolicy returns the parsed order fee schedule.
func (o OrderConfig) FeePolicy() (types.FeePolicy, error) {
	fix, err := types.ParseAmount(o.FixFee)
	if err != nil {
		return types.FeePolicy{}, fmt.Errorf("fix_fee: %w", err)
	}
	return types.FeePolicy{FixFee: fix, PercentFeeBps: o.PercentFeeBps}, nil
}

// MinPatch returns the parsed minimum patch amount.
func (o OrderConfig) MinPatch() (math.Int, error) {
	v, err := types.ParseAmount(o.MinPatchAmount)
	if err != nil {
		return math.Int{}, fmt.Errorf("min_patch_amount: %w", err)
	}
	return v, nil
}
