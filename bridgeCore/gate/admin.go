package gate

import (
	"context"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/pushchain/push-bridge-core/bridgeCore/registry"
	"github.com/pushchain/push-bridge-core/bridgeCore/store"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// BlockSubmissions adds ids to, or removes them from, the deny list.
func (g *Gate) BlockSubmissions(ctx context.Context, caller common.Address, ids []common.Hash, blocked bool) error {
	err := g.db.Transact(ctx, func(repo *store.Repo) error {
		if err := registry.RequireAdmin(repo, caller); err != nil {
			return err
		}
		for _, id := range ids {
			if err := repo.SetBlocked(id.Hex(), blocked); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	g.logger.Info().Int("count", len(ids)).Bool("blocked", blocked).Msg("submission deny list updated")
	return nil
}

// SetAmountThreshold sets the amount from which transfers of debridgeID need
// the excess confirmation tier. Zero disables the threshold.
func (g *Gate) SetAmountThreshold(ctx context.Context, caller common.Address, debridgeID common.Hash, amount math.Int) error {
	return g.db.Transact(ctx, func(repo *store.Repo) error {
		if err := registry.RequireAdmin(repo, caller); err != nil {
			return err
		}
		return saveThreshold(repo, debridgeID, amount)
	})
}

// ApplyThresholds writes thresholds from configuration at startup.
func (g *Gate) ApplyThresholds(ctx context.Context, thresholds map[common.Hash]math.Int) error {
	return g.db.Transact(ctx, func(repo *store.Repo) error {
		for id, amount := range thresholds {
			if err := saveThreshold(repo, id, amount); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveThreshold(repo *store.Repo, debridgeID common.Hash, amount math.Int) error {
	return repo.SaveAmountThreshold(&store.AmountThreshold{
		DebridgeID: debridgeID.Hex(),
		Amount:     types.AmountOrZero(amount).String(),
	})
}

func (g *Gate) GetAmountThreshold(ctx context.Context, debridgeID common.Hash) (math.Int, error) {
	out := math.ZeroInt()
	err := g.db.View(ctx, func(repo *store.Repo) error {
		t, err := repo.FindAmountThreshold(debridgeID.Hex())
		if err != nil || t == nil {
			return err
		}
		out, err = types.ParseAmount(t.Amount)
		return err
	})
	return out, err
}

func (g *Gate) IsSubmissionUsed(ctx context.Context, id common.Hash) (bool, error) {
	var used bool
	err := g.db.View(ctx, func(repo *store.Repo) error {
		var err error
		used, err = repo.IsUsed(id.Hex())
		return err
	})
	return used, err
}

func (g *Gate) IsSubmissionBlocked(ctx context.Context, id common.Hash) (bool, error) {
	var blocked bool
	err := g.db.View(ctx, func(repo *store.Repo) error {
		var err error
		blocked, err = repo.IsBlocked(id.Hex())
		return err
	})
	return blocked, err
}
