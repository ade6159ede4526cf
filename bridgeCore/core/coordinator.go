// Package core assembles the bridge coordinator: storage, oracle registry,
// aggregator, confirmation gate, order ledger and the query server.
package core

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/pushchain/push-bridge-core/bridgeCore/aggregator"
	"github.com/pushchain/push-bridge-core/bridgeCore/api"
	"github.com/pushchain/push-bridge-core/bridgeCore/config"
	"github.com/pushchain/push-bridge-core/bridgeCore/constant"
	"github.com/pushchain/push-bridge-core/bridgeCore/db"
	"github.com/pushchain/push-bridge-core/bridgeCore/gate"
	"github.com/pushchain/push-bridge-core/bridgeCore/keylock"
	"github.com/pushchain/push-bridge-core/bridgeCore/metrics"
	"github.com/pushchain/push-bridge-core/bridgeCore/orders"
	"github.com/pushchain/push-bridge-core/bridgeCore/registry"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

type Coordinator struct {
	ctx context.Context
	cfg config.Config
	log zerolog.Logger
	db  *db.DB

	promRegistry *prometheus.Registry
	metrics      *metrics.Metrics

	registry   *registry.Registry
	aggregator *aggregator.Aggregator
	gate       *gate.Gate
	book       *orders.Book
	ledger     *orders.Ledger
	executor   gate.ClaimExecutor
	server     *api.Server

	closeOnce sync.Once
	closeErr  error
}

var _ api.Backend = (*Coordinator)(nil)

// New opens the node database under <home>/databases and wires every
// component from cfg.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Coordinator, error) {
	home := cfg.NodeHome
	if home == "" {
		home = constant.DefaultNodeHome
	}
	database, err := db.OpenFileDB(filepath.Join(home, constant.DatabasesSubdir), cfg.DatabaseFile, true)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	c, err := NewWithDB(ctx, cfg, database, log)
	if err != nil {
		database.Close()
		return nil, err
	}
	return c, nil
}

// NewWithDB wires the coordinator on an already opened database. The
// coordinator takes ownership of database.
func NewWithDB(ctx context.Context, cfg config.Config, database *db.DB, log zerolog.Logger) (*Coordinator, error) {
	c := &Coordinator{
		ctx:          ctx,
		cfg:          cfg,
		log:          log,
		db:           database,
		promRegistry: prometheus.NewRegistry(),
	}
	c.metrics = metrics.New(c.promRegistry)

	admins := make([]common.Address, 0, len(cfg.Admins))
	for _, admin := range cfg.Admins {
		if !common.IsHexAddress(admin) {
			return nil, fmt.Errorf("admin %q is not a hex address", admin)
		}
		admins = append(admins, common.HexToAddress(admin))
	}

	c.registry = registry.New(database, c.metrics, log)
	policy := types.QuorumPolicy{
		MinConfirmations:      cfg.Quorum.MinConfirmations,
		ConfirmationThreshold: cfg.Quorum.ConfirmationThreshold,
		ExcessConfirmations:   cfg.Quorum.ExcessConfirmations,
	}
	if err := c.registry.Bootstrap(ctx, admins, policy); err != nil {
		return nil, fmt.Errorf("failed to bootstrap registry: %w", err)
	}

	locks := keylock.New(keylock.DefaultShards)
	clock := aggregator.NewWallClock(time.Duration(cfg.ConfirmationWindowSeconds) * time.Second)
	c.aggregator = aggregator.New(database, locks, clock, c.metrics, log)

	var strategy gate.QuorumStrategy
	switch cfg.QuorumStrategy {
	case "", config.StrategyCount:
		strategy = c.aggregator
	case config.StrategySignature:
		strategy = aggregator.NewSignatureVerifier(clock, c.metrics, log)
	default:
		return nil, fmt.Errorf("unknown quorum strategy %q", cfg.QuorumStrategy)
	}
	c.gate = gate.New(database, locks, strategy, c.metrics, log)

	thresholds, err := amountThresholds(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.gate.ApplyThresholds(ctx, thresholds); err != nil {
		return nil, fmt.Errorf("failed to apply amount thresholds: %w", err)
	}

	settings, err := orders.SettingsFromConfig(&cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid order settings: %w", err)
	}
	c.book = orders.NewBook(database)
	c.ledger = orders.New(database, locks, c.gate, c.book, settings, c.metrics, log)
	c.executor = bookExecutor{book: c.book, localChainID: cfg.LocalChainID}

	var gatherer prometheus.Gatherer
	if cfg.MetricsEnabled {
		gatherer = c.promRegistry
	}
	c.server = api.NewServer(c, gatherer, log, cfg.QueryServerPort)

	return c, nil
}

// amountThresholds collects the per-asset thresholds of every chain config.
func amountThresholds(cfg config.Config) (map[common.Hash]math.Int, error) {
	out := make(map[common.Hash]math.Int)
	for chain, chainCfg := range cfg.ChainConfigs {
		for key, amount := range chainCfg.AmountThresholds {
			raw, err := hexutil.Decode(key)
			if err != nil || len(raw) != common.HashLength {
				return nil, fmt.Errorf("chain %s: threshold key %q is not a debridge id", chain, key)
			}
			v, err := types.ParseAmount(amount)
			if err != nil {
				return nil, fmt.Errorf("chain %s threshold for %s: %w", chain, key, err)
			}
			out[common.BytesToHash(raw)] = v
		}
	}
	return out, nil
}

// Start serves the query API and blocks until the context is cancelled,
// then shuts everything down.
func (c *Coordinator) Start() error {
	c.log.Info().Msg("🚀 Starting bridge coordinator...")

	if err := c.server.Start(); err != nil {
		c.Close()
		return fmt.Errorf("failed to start query server: %w", err)
	}

	params, err := c.registry.GetParams(c.ctx)
	if err == nil {
		c.log.Info().
			Uint32("valid_oracles", params.ValidOraclesCount).
			Uint32("min_confirmations", params.MinConfirmations).
			Str("strategy", c.cfg.QuorumStrategy).
			Msg("✅ Initialization complete. Waiting for submissions...")
	}

	<-c.ctx.Done()

	c.log.Info().Msg("🛑 Shutting down bridge coordinator...")
	return c.Close()
}

// Close stops the query server and closes the database. It is safe to
// call more than once.
func (c *Coordinator) Close() error {
	c.closeOnce.Do(func() {
		if err := c.server.Stop(); err != nil {
			c.log.Error().Err(err).Msg("failed to stop query server")
		}
		c.closeErr = c.db.Close()
	})
	return c.closeErr
}

func (c *Coordinator) Registry() *registry.Registry { return c.registry }
func (c *Coordinator) Aggregator() *aggregator.Aggregator { return c.aggregator }
func (c *Coordinator) Gate() *gate.Gate { return c.gate }
func (c *Coordinator) Book() *orders.Book { return c.book }
func (c *Coordinator) Ledger() *orders.Ledger { return c.ledger }
func (c *Coordinator) Gatherer() prometheus.Gatherer { return c.promRegistry }
func (c *Coordinator) Handler() http.Handler { return c.server.Handler() }
