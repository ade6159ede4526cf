package aggregator

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/pushchain/push-bridge-core/bridgeCore/store"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// SubmissionInfo is the full status of a submission id. An id nobody voted
// on yet reports zero confirmations.
type SubmissionInfo struct {
	ID               common.Hash          `json:"id"`
	Kind             types.SubmissionKind `json:"kind,omitempty"`
	Confirmations    uint32               `json:"confirmations"`
	IsConfirmed      bool                 `json:"is_confirmed"`
	ConfirmedAtBlock uint64               `json:"confirmed_at_block"`
	Voters           []common.Address     `json:"voters"`
	IsUsed           bool                 `json:"is_used"`
	IsBlocked        bool                 `json:"is_blocked"`
}

// GetSubmissionConfirmations returns the vote count and the quorum decision.
func (a *Aggregator) GetSubmissionConfirmations(ctx context.Context, id common.Hash) (uint32, bool, error) {
	var (
		count     uint32
		confirmed bool
	)
	err := a.db.View(ctx, func(repo *store.Repo) error {
		var err error
		count, confirmed, err = a.Confirmations(repo, id, nil)
		return err
	})
	return count, confirmed, err
}

func (a *Aggregator) GetSubmissionInfo(ctx context.Context, id common.Hash) (SubmissionInfo, error) {
	info := SubmissionInfo{ID: id, Voters: []common.Address{}}
	err := a.db.View(ctx, func(repo *store.Repo) error {
		sub, err := repo.FindSubmission(id.Hex())
		if err != nil {
			return err
		}
		if sub != nil {
			info.Kind = types.SubmissionKind(sub.Kind)
			info.Confirmations = sub.Confirmations
			info.IsConfirmed = sub.IsConfirmed
			info.ConfirmedAtBlock = sub.ConfirmedAtBlock
		}
		voters, err := repo.ListVoters(id.Hex())
		if err != nil {
			return err
		}
		for _, v := range voters {
			info.Voters = append(info.Voters, common.HexToAddress(v))
		}
		if info.IsUsed, err = repo.IsUsed(id.Hex()); err != nil {
			return err
		}
		info.IsBlocked, err = repo.IsBlocked(id.Hex())
		return err
	})
	return info, err
}
