// Package gate enforces one-time execution of confirmed submissions.
//
// A check-and-consume runs under the submission-id lock and inside one
// transaction, so of two racing claims for the same id exactly one wins and
// the other sees ErrSubmissionUsed.
package gate

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/pushchain/push-bridge-core/bridgeCore/db"
	"github.com/pushchain/push-bridge-core/bridgeCore/keylock"
	"github.com/pushchain/push-bridge-core/bridgeCore/metrics"
	"github.com/pushchain/push-bridge-core/bridgeCore/registry"
	"github.com/pushchain/push-bridge-core/bridgeCore/store"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// QuorumStrategy decides whether a submission id is confirmed. The
// count-based aggregator reads stored votes; the signature verifier counts
// the signatures passed along with the message.
type QuorumStrategy interface {
	Name() string
	Confirmations(repo *store.Repo, id common.Hash, signatures []byte) (count uint32, confirmed bool, err error)
}

// commitObserver is implemented by strategies that decide quorum inside the
// consuming transaction and report it only after commit.
type commitObserver interface {
	Committed(id common.Hash)
}

// CheckRequest is what the gate needs to know about a message.
type CheckRequest struct {
	SubmissionID common.Hash
	DebridgeID   common.Hash // zero when no amount threshold applies
	Amount       math.Int
	Signatures   []byte
}

// Gate consumes quorum decisions.
type Gate struct {
	db       *db.DB
	locks    *keylock.Locker
	strategy QuorumStrategy
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func New(database *db.DB, locks *keylock.Locker, strategy QuorumStrategy, m *metrics.Metrics, logger zerolog.Logger) *Gate {
	return &Gate{
		db:       database,
		locks:    locks,
		strategy: strategy,
		metrics:  m,
		logger:   logger.With().Str("component", "gate").Str("strategy", strategy.Name()).Logger(),
	}
}

// Locks is shared with callers that consume inside their own transaction.
func (g *Gate) Locks() *keylock.Locker { return g.locks }

// CheckConfirmations reports whether req may be executed, without consuming
// it or touching the flood window.
func (g *Gate) CheckConfirmations(ctx context.Context, req CheckRequest) error {
	err := g.db.Simulate(ctx, func(repo *store.Repo) error {
		return g.checkIn(repo, req)
	})
	if err != nil {
		g.metrics.GateRejected(err)
	}
	return err
}

func (g *Gate) checkIn(repo *store.Repo, req CheckRequest) error {
	id := req.SubmissionID.Hex()
	blocked, err := repo.IsBlocked(id)
	if err != nil {
		return err
	}
	if blocked {
		return errorsmod.Wrapf(types.ErrSubmissionBlocked, "submission %s", id)
	}

	count, confirmed, err := g.strategy.Confirmations(repo, req.SubmissionID, req.Signatures)
	if err != nil {
		return err
	}
	if !confirmed {
		return errorsmod.Wrapf(types.ErrSubmissionNotConfirmed, "submission %s has %d confirmations", id, count)
	}

	if req.DebridgeID == (common.Hash{}) || req.Amount.IsNil() {
		return nil
	}
	threshold, err := repo.FindAmountThreshold(req.DebridgeID.Hex())
	if err != nil || threshold == nil {
		return err
	}
	limit, err := types.ParseAmount(threshold.Amount)
	if err != nil {
		return err
	}
	if limit.IsZero() || req.Amount.LT(limit) {
		return nil
	}
	params, err := registry.LoadParams(repo)
	if err != nil {
		return err
	}
	if count < params.ExcessConfirmations {
		return errorsmod.Wrapf(types.ErrSubmissionAmountNotConfirmed,
			"amount %s needs %d confirmations, has %d", req.Amount, params.ExcessConfirmations, count)
	}
	return nil
}

// Consume marks id used. It fails with ErrSubmissionUsed the second time.
func (g *Gate) Consume(ctx context.Context, id common.Hash) error {
	unlock := g.locks.Lock(id)
	defer unlock()

	err := g.db.Transact(ctx, func(repo *store.Repo) error {
		return consumeIn(repo, id)
	})
	g.observe(id, err)
	return err
}

// CheckAndConsume checks req and consumes its submission atomically.
func (g *Gate) CheckAndConsume(ctx context.Context, req CheckRequest) error {
	unlock := g.locks.Lock(req.SubmissionID)
	defer unlock()

	err := g.db.Transact(ctx, func(repo *store.Repo) error {
		return g.CheckAndConsumeIn(repo, req)
	})
	g.observe(req.SubmissionID, err)
	return err
}

// CheckAndConsumeIn is CheckAndConsume for a caller that already holds the
// submission-id lock and an open transaction. The caller reports a
// successful commit with Committed.
func (g *Gate) CheckAndConsumeIn(repo *store.Repo, req CheckRequest) error {
	if err := g.checkIn(repo, req); err != nil {
		return err
	}
	return consumeIn(repo, req.SubmissionID)
}

func consumeIn(repo *store.Repo, id common.Hash) error {
	inserted, err := repo.MarkUsed(id.Hex())
	if err != nil {
		return err
	}
	if !inserted {
		return errorsmod.Wrapf(types.ErrSubmissionUsed, "submission %s", id.Hex())
	}
	return nil
}

func (g *Gate) observe(id common.Hash, err error) {
	if err != nil {
		g.metrics.GateRejected(err)
		g.logger.Debug().Err(err).Str("submission_id", id.Hex()).Msg("submission not consumed")
		return
	}
	g.Committed(id)
}

// Committed records that the consumption of id has been committed.
func (g *Gate) Committed(id common.Hash) {
	if o, ok := g.strategy.(commitObserver); ok {
		o.Committed(id)
	}
	g.metrics.SubmissionConsumed()
	g.logger.Info().Str("submission_id", id.Hex()).Msg("submission consumed")
}
