package registry

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/pushchain/push-bridge-core/bridgeCore/store"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

func toOracle(o store.Oracle) Oracle {
	return Oracle{
		Address:    common.HexToAddress(o.Address),
		Admin:      common.HexToAddress(o.Admin),
		IsValid:    o.IsValid,
		IsRequired: o.IsRequired,
		Position:   o.Position,
	}
}

func toParams(p store.Params) Params {
	return Params{
		QuorumPolicy: types.QuorumPolicy{
			MinConfirmations:      p.MinConfirmations,
			ConfirmationThreshold: p.ConfirmationThreshold,
			ExcessConfirmations:   p.ExcessConfirmations,
		},
		ValidOraclesCount:    p.ValidOraclesCount,
		RequiredOraclesCount: p.RequiredOraclesCount,
		CurrentBlock:         p.CurrentBlock,
		SubmissionsInBlock:   p.SubmissionsInBlock,
	}
}

func (r *Registry) GetOracle(ctx context.Context, id common.Address) (Oracle, error) {
	var out Oracle
	err := r.db.View(ctx, func(repo *store.Repo) error {
		o, err := r.mustOracle(repo, id)
		if err != nil {
			return err
		}
		out = toOracle(*o)
		return nil
	})
	return out, err
}

// ListOracles returns every oracle in insertion order.
func (r *Registry) ListOracles(ctx context.Context) ([]Oracle, error) {
	var out []Oracle
	err := r.db.View(ctx, func(repo *store.Repo) error {
		rows, err := repo.ListOracles()
		if err != nil {
			return err
		}
		out = make([]Oracle, 0, len(rows))
		for _, o := range rows {
			out = append(out, toOracle(o))
		}
		return nil
	})
	return out, err
}

func (r *Registry) GetParams(ctx context.Context) (Params, error) {
	var out Params
	err := r.db.View(ctx, func(repo *store.Repo) error {
		p, err := LoadParams(repo)
		if err != nil {
			return err
		}
		out = toParams(*p)
		return nil
	})
	return out, err
}

func (r *Registry) IsAdmin(ctx context.Context, addr common.Address) (bool, error) {
	var ok bool
	err := r.db.View(ctx, func(repo *store.Repo) error {
		var err error
		ok, err = repo.IsAdmin(addr.Hex())
		return err
	})
	return ok, err
}

func (r *Registry) IsValidOracle(ctx context.Context, addr common.Address) (bool, error) {
	var ok bool
	err := r.db.View(ctx, func(repo *store.Repo) error {
		var err error
		ok, err = IsValidOracleIn(repo, addr)
		return err
	})
	return ok, err
}

// IsValidOracleIn is IsValidOracle inside an open transaction.
func IsValidOracleIn(repo *store.Repo, addr common.Address) (bool, error) {
	o, err := repo.FindOracle(addr.Hex())
	if err != nil {
		return false, err
	}
	return o != nil && o.IsValid, nil
}

// RequireValidOracle fails with ErrOracleBadRole unless addr is a valid oracle.
func RequireValidOracle(repo *store.Repo, addr common.Address) error {
	ok, err := IsValidOracleIn(repo, addr)
	if err != nil {
		return err
	}
	if !ok {
		return errorsmod.Wrapf(types.ErrOracleBadRole, "%s is not a valid oracle", addr.Hex())
	}
	return nil
}
