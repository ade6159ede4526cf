package aggregator

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/pushchain/push-bridge-core/bridgeCore/registry"
	"github.com/pushchain/push-bridge-core/bridgeCore/store"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// voteResult is what one recorded vote did to a submission.
type voteResult struct {
	Confirmations  uint32
	Confirmed      bool
	NewlyConfirmed bool
	ConfirmedAt    uint64
}

// recordVote stores one oracle vote on id and flips the submission to
// confirmed when quorum is reached. Confirmed is terminal.
func recordVote(repo *store.Repo, clock Clock, kind types.SubmissionKind, id common.Hash, oracle common.Address) (voteResult, error) {
	if err := registry.RequireValidOracle(repo, oracle); err != nil {
		return voteResult{}, err
	}
	voted, err := repo.HasVote(id.Hex(), oracle.Hex())
	if err != nil {
		return voteResult{}, err
	}
	if voted {
		return voteResult{}, errorsmod.Wrapf(types.ErrSubmittedAlready, "oracle %s on %s", oracle.Hex(), id.Hex())
	}

	sub, err := repo.FindSubmission(id.Hex())
	if err != nil {
		return voteResult{}, err
	}
	if sub == nil {
		sub = &store.Submission{ID: id.Hex(), Kind: string(kind)}
	} else if sub.Kind != string(kind) {
		return voteResult{}, errorsmod.Wrapf(types.ErrWrongArgument, "%s is a %s id", id.Hex(), sub.Kind)
	}

	if err := repo.CreateVote(&store.Vote{SubmissionID: id.Hex(), Oracle: oracle.Hex()}); err != nil {
		return voteResult{}, err
	}
	sub.Confirmations++

	res := voteResult{}
	if !sub.IsConfirmed {
		params, err := registry.LoadParams(repo)
		if err != nil {
			return voteResult{}, err
		}
		missing, err := repo.CountMissingRequired(id.Hex())
		if err != nil {
			return voteResult{}, err
		}
		if sub.Confirmations >= params.MinConfirmations && missing == 0 {
			ok, err := admitInWindow(repo, params, clock, sub.Confirmations)
			if err != nil {
				return voteResult{}, err
			}
			if ok {
				sub.IsConfirmed = true
				sub.ConfirmedAtBlock = params.CurrentBlock
				res.NewlyConfirmed = true
			}
		}
	}
	if err := repo.SaveSubmission(sub); err != nil {
		return voteResult{}, err
	}

	res.Confirmations = sub.Confirmations
	res.Confirmed = sub.IsConfirmed
	res.ConfirmedAt = sub.ConfirmedAtBlock
	return res, nil
}

// admitInWindow applies the flood window to a submission that already meets
// the base quorum. Once ConfirmationThreshold submissions were confirmed in
// the current window, further ones need ExcessConfirmations. An admitted
// submission is counted in the window.
func admitInWindow(repo *store.Repo, params *store.Params, clock Clock, confirmations uint32) (bool, error) {
	block := clock.CurrentBlock()
	if params.CurrentBlock != block {
		params.CurrentBlock = block
		params.SubmissionsInBlock = 0
	}
	if params.SubmissionsInBlock >= params.ConfirmationThreshold && confirmations < params.ExcessConfirmations {
		return false, nil
	}
	params.SubmissionsInBlock++
	if err := repo.SaveParams(params); err != nil {
		return false, err
	}
	return true, nil
}
