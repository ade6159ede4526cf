package orders

import (
	"fmt"
	"strconv"

	"cosmossdk.io/math"

	"github.com/pushchain/push-bridge-core/bridgeCore/config"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// Settings is the ledger's view of the coordinator configuration.
type Settings struct {
	LocalChainID         uint64
	Chains               types.ChainRegistry
	Fees                 types.FeePolicy
	MinPatchAmount       math.Int
	ExternalCallEnabled  bool
	RefundFixFeeOnCancel bool

	// Claim provenance.
	CallProxy       []byte
	ExecutorProgram []byte
	Counterparts    map[uint64][]byte // source chain -> expected native sender
}

// SettingsFromConfig parses the order and provenance sections of cfg.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	chains, err := cfg.ChainRegistry()
	if err != nil {
		return Settings{}, err
	}
	local, err := chains.Family(cfg.LocalChainID)
	if err != nil {
		return Settings{}, err
	}
	fees, err := cfg.Orders.FeePolicy()
	if err != nil {
		return Settings{}, err
	}
	minPatch, err := cfg.Orders.MinPatch()
	if err != nil {
		return Settings{}, err
	}

	s := Settings{
		LocalChainID:         cfg.LocalChainID,
		Chains:               chains,
		Fees:                 fees,
		MinPatchAmount:       minPatch,
		ExternalCallEnabled:  cfg.Orders.ExternalCallEnabled,
		RefundFixFeeOnCancel: cfg.Orders.RefundFixFeeOnCancel,
		Counterparts:         make(map[uint64][]byte),
	}
	if cfg.CallProxy != "" {
		addr, err := types.ParseAddress(local, cfg.CallProxy)
		if err != nil {
			return Settings{}, fmt.Errorf("call_proxy: %w", err)
		}
		s.CallProxy = addr.Bytes
	}
	if cfg.ExecutorProgram != "" {
		addr, err := types.ParseAddress(local, cfg.ExecutorProgram)
		if err != nil {
			return Settings{}, fmt.Errorf("executor_program: %w", err)
		}
		s.ExecutorProgram = addr.Bytes
	}
	for key, chain := range cfg.ChainConfigs {
		if chain.OrderCounterpart == "" {
			continue
		}
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return Settings{}, fmt.Errorf("chain config key %q is not a chain id", key)
		}
		addr, err := types.ParseAddress(chains[id], chain.OrderCounterpart)
		if err != nil {
			return Settings{}, fmt.Errorf("chain %s order_counterpart: %w", key, err)
		}
		s.Counterparts[id] = addr.Bytes
	}
	return s, nil
}
