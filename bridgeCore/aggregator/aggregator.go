// Package aggregator turns independent oracle attestations into a binary
// confirmed decision per submission id.
//
// Two variants share one store: the count-based Aggregator records votes
// from authenticated oracles (directly, or relayed with the oracle's
// signature), and the stateless SignatureVerifier counts a batch of
// signatures presented at claim time. Both implement gate.QuorumStrategy.
package aggregator

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/pushchain/push-bridge-core/bridgeCore/db"
	"github.com/pushchain/push-bridge-core/bridgeCore/keylock"
	"github.com/pushchain/push-bridge-core/bridgeCore/metrics"
	"github.com/pushchain/push-bridge-core/bridgeCore/sigutil"
	"github.com/pushchain/push-bridge-core/bridgeCore/store"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

const (
	variantCount     = "count"
	variantSignature = "signature"
)

// Aggregator is the count-based quorum engine.
type Aggregator struct {
	db      *db.DB
	locks   *keylock.Locker
	clock   Clock
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// New creates an Aggregator. locks must be shared with every component that
// mutates the same submission ids.
func New(database *db.DB, locks *keylock.Locker, clock Clock, m *metrics.Metrics, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		db:      database,
		locks:   locks,
		clock:   clock,
		metrics: m,
		logger:  logger.With().Str("component", "aggregator").Logger(),
	}
}

// Name identifies the strategy in logs and config.
func (a *Aggregator) Name() string { return variantCount }

// Submit records the vote of oracle on id and reports whether id is confirmed.
func (a *Aggregator) Submit(ctx context.Context, oracle common.Address, id common.Hash) (bool, error) {
	return a.submit(ctx, variantCount, oracle, id)
}

// SubmitSigned recovers the oracle from signature and votes on its behalf.
func (a *Aggregator) SubmitSigned(ctx context.Context, id common.Hash, signature []byte) (common.Address, bool, error) {
	signer, err := sigutil.RecoverSigner(id, signature)
	if err != nil {
		a.metrics.ObserveVote(variantSignature, err)
		return common.Address{}, false, err
	}
	confirmed, err := a.submit(ctx, variantSignature, signer, id)
	return signer, confirmed, err
}

func (a *Aggregator) submit(ctx context.Context, variant string, oracle common.Address, id common.Hash) (bool, error) {
	unlock := a.locks.Lock(id)
	defer unlock()

	var res voteResult
	err := a.db.Transact(ctx, func(repo *store.Repo) error {
		var err error
		res, err = recordVote(repo, a.clock, types.KindSubmission, id, oracle)
		return err
	})
	a.metrics.ObserveVote(variant, err)
	if err != nil {
		a.logger.Debug().
			Err(err).
			Str("variant", variant).
			Str("oracle", oracle.Hex()).
			Str("submission_id", id.Hex()).
			Msg("vote rejected")
		return false, err
	}
	a.logVote(variant, types.KindSubmission, oracle, id, res)
	return res.Confirmed, nil
}

// SubmitMany records one oracle's votes on several ids atomically: if any
// vote fails none is kept.
func (a *Aggregator) SubmitMany(ctx context.Context, oracle common.Address, ids []common.Hash) ([]bool, error) {
	if len(ids) == 0 {
		return nil, errorsmod.Wrap(types.ErrWrongArgument, "no submission ids")
	}
	unlock := a.locks.Lock(ids...)
	defer unlock()

	results := make([]voteResult, len(ids))
	err := a.db.Transact(ctx, func(repo *store.Repo) error {
		for i, id := range ids {
			res, err := recordVote(repo, a.clock, types.KindSubmission, id, oracle)
			if err != nil {
				return errorsmod.Wrapf(err, "submission %d of %d", i+1, len(ids))
			}
			results[i] = res
		}
		return nil
	})
	a.metrics.ObserveVote(variantCount, err)
	if err != nil {
		a.logger.Debug().Err(err).Str("oracle", oracle.Hex()).Int("count", len(ids)).Msg("batch vote rejected")
		return nil, err
	}

	confirmed := make([]bool, len(ids))
	for i, res := range results {
		a.logVote(variantCount, types.KindSubmission, oracle, ids[i], res)
		confirmed[i] = res.Confirmed
	}
	return confirmed, nil
}

func (a *Aggregator) logVote(variant string, kind types.SubmissionKind, oracle common.Address, id common.Hash, res voteResult) {
	a.logger.Debug().
		Str("variant", variant).
		Str("kind", string(kind)).
		Str("oracle", oracle.Hex()).
		Str("submission_id", id.Hex()).
		Uint32("confirmations", res.Confirmations).
		Msg("vote recorded")
	if res.NewlyConfirmed {
		a.metrics.SubmissionConfirmed(string(kind))
		a.logger.Info().
			Str("kind", string(kind)).
			Str("submission_id", id.Hex()).
			Uint32("confirmations", res.Confirmations).
			Uint64("window", res.ConfirmedAt).
			Msg("submission confirmed")
	}
}

// Confirmations reports the stored quorum decision for id. The signatures
// argument is ignored: votes were recorded beforehand.
func (a *Aggregator) Confirmations(repo *store.Repo, id common.Hash, _ []byte) (uint32, bool, error) {
	sub, err := repo.FindSubmission(id.Hex())
	if err != nil || sub == nil {
		return 0, false, err
	}
	return sub.Confirmations, sub.IsConfirmed, nil
}
