package gate

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/pushchain/push-bridge-core/bridgeCore/store"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// ClaimParams describe a transfer arriving from another chain.
type ClaimParams struct {
	DebridgeID  common.Hash
	ChainIDFrom uint64
	ChainIDTo   uint64
	Amount      math.Int
	Receiver    []byte
	Nonce       uint64
	AutoParams  []byte
	Signatures  []byte
}

// SubmissionID of the transfer.
func (p ClaimParams) SubmissionID() common.Hash {
	return types.SubmissionID(types.SubmissionParams{
		DebridgeID:  p.DebridgeID,
		ChainIDFrom: p.ChainIDFrom,
		ChainIDTo:   p.ChainIDTo,
		Amount:      p.Amount,
		Receiver:    p.Receiver,
		Nonce:       p.Nonce,
		AutoParams:  p.AutoParams,
	})
}

// ClaimExecutor performs the side effect of a claim (mint, unlock, call).
// It runs inside the consuming transaction: ctx carries the store.Repo and
// an error rolls the consumption back.
type ClaimExecutor interface {
	ExecuteClaim(ctx context.Context, submissionID common.Hash, p ClaimParams) error
}

// ClaimExecutorFunc adapts a function to ClaimExecutor.
type ClaimExecutorFunc func(ctx context.Context, submissionID common.Hash, p ClaimParams) error

func (f ClaimExecutorFunc) ExecuteClaim(ctx context.Context, submissionID common.Hash, p ClaimParams) error {
	return f(ctx, submissionID, p)
}

// Claim derives the submission id of p, checks and consumes it, and runs
// exec, all in one transaction.
func (g *Gate) Claim(ctx context.Context, p ClaimParams, exec ClaimExecutor) (common.Hash, error) {
	if len(p.Receiver) == 0 {
		return common.Hash{}, errorsmod.Wrap(types.ErrWrongArgument, "empty receiver")
	}
	if p.Amount.IsNil() || !p.Amount.IsPositive() {
		return common.Hash{}, errorsmod.Wrap(types.ErrWrongArgument, "amount must be positive")
	}
	id := p.SubmissionID()

	unlock := g.locks.Lock(id)
	defer unlock()

	err := g.db.Transact(ctx, func(repo *store.Repo) error {
		if err := g.CheckAndConsumeIn(repo, CheckRequest{
			SubmissionID: id,
			DebridgeID:   p.DebridgeID,
			Amount:       p.Amount,
			Signatures:   p.Signatures,
		}); err != nil {
			return err
		}
		return exec.ExecuteClaim(repo.Context(), id, p)
	})
	g.observe(id, err)
	return id, err
}
