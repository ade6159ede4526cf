// Package registry maintains the oracle set and the quorum policy.
//
// Every mutation re-checks that quorum stays reachable:
//
//	requiredOraclesCount + minConfirmations <= validOracleCount
//
// A mutation that would break it fails with ErrLowMinConfirmations and
// leaves the registry untouched.
package registry

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/pushchain/push-bridge-core/bridgeCore/db"
	"github.com/pushchain/push-bridge-core/bridgeCore/metrics"
	"github.com/pushchain/push-bridge-core/bridgeCore/store"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// Oracle is the registry view of an oracle.
type Oracle struct {
	Address    common.Address `json:"address"`
	Admin      common.Address `json:"admin"`
	IsValid    bool           `json:"is_valid"`
	IsRequired bool           `json:"is_required"`
	Position   uint64         `json:"position"`
}

// Params is the quorum policy together with the oracle counters.
type Params struct {
	types.QuorumPolicy
	ValidOraclesCount    uint32 `json:"valid_oracles_count"`
	RequiredOraclesCount uint32 `json:"required_oracles_count"`
	CurrentBlock         uint64 `json:"current_block"`
	SubmissionsInBlock   uint32 `json:"submissions_in_block"`
}

// Registry owns oracle records and the quorum policy.
type Registry struct {
	db      *db.DB
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// New creates a registry backed by database.
func New(database *db.DB, m *metrics.Metrics, logger zerolog.Logger) *Registry {
	return &Registry{
		db:      database,
		metrics: m,
		logger:  logger.With().Str("component", "registry").Logger(),
	}
}

// Bootstrap writes the initial policy and admin set. Existing params are
// kept; admins are always added. The reachability check starts with the
// first oracle mutation, since a fresh registry has no oracles.
func (r *Registry) Bootstrap(ctx context.Context, admins []common.Address, policy types.QuorumPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}
	return r.db.Transact(ctx, func(repo *store.Repo) error {
		params, err := repo.GetParams()
		if err != nil {
			return err
		}
		if params == nil {
			params = &store.Params{
				MinConfirmations:      policy.MinConfirmations,
				ConfirmationThreshold: policy.ConfirmationThreshold,
				ExcessConfirmations:   policy.ExcessConfirmations,
			}
			if err := repo.SaveParams(params); err != nil {
				return err
			}
			r.logger.Info().
				Uint32("min_confirmations", policy.MinConfirmations).
				Uint32("confirmation_threshold", policy.ConfirmationThreshold).
				Uint32("excess_confirmations", policy.ExcessConfirmations).
				Msg("quorum policy initialised")
		}
		for _, admin := range admins {
			if err := repo.AddAdmin(admin.Hex()); err != nil {
				return err
			}
		}
		r.metrics.SetValidOracles(params.ValidOraclesCount)
		return nil
	})
}

// AddOracles registers new oracles. Ids already present are skipped.
func (r *Registry) AddOracles(ctx context.Context, caller common.Address, ids []common.Address, required []bool) error {
	if len(ids) != len(required) {
		return errorsmod.Wrapf(types.ErrWrongArgument, "%d oracles but %d required flags", len(ids), len(required))
	}
	var added int
	err := r.db.Transact(ctx, func(repo *store.Repo) error {
		params, err := r.adminParams(repo, caller)
		if err != nil {
			return err
		}
		pos, err := repo.NextOraclePosition()
		if err != nil {
			return err
		}
		for i, id := range ids {
			existing, err := repo.FindOracle(id.Hex())
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if err := repo.CreateOracle(&store.Oracle{
				Address:    id.Hex(),
				Admin:      id.Hex(),
				IsValid:    true,
				IsRequired: required[i],
				Position:   pos,
			}); err != nil {
				return err
			}
			pos++
			added++
		}
		return r.recount(repo, params)
	})
	if err != nil {
		r.logger.Debug().Err(err).Str("caller", caller.Hex()).Int("count", len(ids)).Msg("add oracles rejected")
		return err
	}
	r.logger.Info().Str("caller", caller.Hex()).Int("added", added).Msg("oracles added")
	return nil
}

// UpdateOracle sets the valid and required flags of an oracle.
func (r *Registry) UpdateOracle(ctx context.Context, caller, id common.Address, isValid, isRequired bool) error {
	err := r.db.Transact(ctx, func(repo *store.Repo) error {
		params, err := r.adminParams(repo, caller)
		if err != nil {
			return err
		}
		oracle, err := r.mustOracle(repo, id)
		if err != nil {
			return err
		}
		oracle.IsValid = isValid
		oracle.IsRequired = isRequired
		if err := repo.SaveOracle(oracle); err != nil {
			return err
		}
		return r.recount(repo, params)
	})
	if err != nil {
		r.logger.Debug().Err(err).Str("oracle", id.Hex()).Msg("update oracle rejected")
		return err
	}
	r.logger.Info().
		Str("oracle", id.Hex()).
		Bool("valid", isValid).
		Bool("required", isRequired).
		Msg("oracle updated")
	return nil
}

// UpdateOracleAdmin lets the current delegate admin of an oracle hand it over.
func (r *Registry) UpdateOracleAdmin(ctx context.Context, caller, id, newAdmin common.Address) error {
	return r.db.Transact(ctx, func(repo *store.Repo) error {
		oracle, err := r.mustOracle(repo, id)
		if err != nil {
			return err
		}
		if oracle.Admin != caller.Hex() {
			return errorsmod.Wrapf(types.ErrOnlyCallableByAdmin, "%s is not the admin of oracle %s", caller.Hex(), id.Hex())
		}
		oracle.Admin = newAdmin.Hex()
		return repo.SaveOracle(oracle)
	})
}

// UpdateOracleAdminByOwner is the registry admin override of UpdateOracleAdmin.
func (r *Registry) UpdateOracleAdminByOwner(ctx context.Context, caller, id, newAdmin common.Address) error {
	return r.db.Transact(ctx, func(repo *store.Repo) error {
		if err := RequireAdmin(repo, caller); err != nil {
			return err
		}
		oracle, err := r.mustOracle(repo, id)
		if err != nil {
			return err
		}
		oracle.Admin = newAdmin.Hex()
		return repo.SaveOracle(oracle)
	})
}

// SetMinConfirmations changes the base quorum.
func (r *Registry) SetMinConfirmations(ctx context.Context, caller common.Address, n uint32) error {
	return r.updatePolicy(ctx, caller, "min_confirmations", n, func(p *store.Params) error {
		if n == 0 {
			return errorsmod.Wrap(types.ErrLowMinConfirmations, "min confirmations must be at least 1")
		}
		if n > p.ExcessConfirmations {
			return errorsmod.Wrapf(types.ErrLowMinConfirmations, "min %d above excess %d", n, p.ExcessConfirmations)
		}
		p.MinConfirmations = n
		return types.CheckReachable(p.MinConfirmations, p.RequiredOraclesCount, p.ValidOraclesCount)
	})
}

// SetThreshold changes how many confirmations per window trigger the excess tier.
func (r *Registry) SetThreshold(ctx context.Context, caller common.Address, n uint32) error {
	return r.updatePolicy(ctx, caller, "confirmation_threshold", n, func(p *store.Params) error {
		p.ConfirmationThreshold = n
		return nil
	})
}

// SetExcessConfirmations changes the quorum required under flood or for large amounts.
func (r *Registry) SetExcessConfirmations(ctx context.Context, caller common.Address, n uint32) error {
	return r.updatePolicy(ctx, caller, "excess_confirmations", n, func(p *store.Params) error {
		if n < p.MinConfirmations {
			return errorsmod.Wrapf(types.ErrLowMinConfirmations, "excess %d below min %d", n, p.MinConfirmations)
		}
		p.ExcessConfirmations = n
		return nil
	})
}

func (r *Registry) updatePolicy(ctx context.Context, caller common.Address, field string, n uint32, apply func(p *store.Params) error) error {
	err := r.db.Transact(ctx, func(repo *store.Repo) error {
		params, err := r.adminParams(repo, caller)
		if err != nil {
			return err
		}
		if err := apply(params); err != nil {
			return err
		}
		return repo.SaveParams(params)
	})
	if err != nil {
		r.logger.Debug().Err(err).Str("field", field).Uint32("value", n).Msg("quorum policy change rejected")
		return err
	}
	r.logger.Info().Str("field", field).Uint32("value", n).Msg("quorum policy changed")
	return nil
}

// recount refreshes the oracle counters and checks reachability.
func (r *Registry) recount(repo *store.Repo, params *store.Params) error {
	valid, required, err := repo.CountOracles()
	if err != nil {
		return err
	}
	if err := types.CheckReachable(params.MinConfirmations, required, valid); err != nil {
		return err
	}
	params.ValidOraclesCount = valid
	params.RequiredOraclesCount = required
	if err := repo.SaveParams(params); err != nil {
		return err
	}
	r.metrics.SetValidOracles(valid)
	return nil
}

func (r *Registry) adminParams(repo *store.Repo, caller common.Address) (*store.Params, error) {
	if err := RequireAdmin(repo, caller); err != nil {
		return nil, err
	}
	return LoadParams(repo)
}

func (r *Registry) mustOracle(repo *store.Repo, id common.Address) (*store.Oracle, error) {
	oracle, err := repo.FindOracle(id.Hex())
	if err != nil {
		return nil, err
	}
	if oracle == nil {
		return nil, errorsmod.Wrapf(types.ErrNotExist, "oracle %s", id.Hex())
	}
	return oracle, nil
}

// RequireAdmin fails with ErrAdminBadRole unless caller is a registry admin.
func RequireAdmin(repo *store.Repo, caller common.Address) error {
	ok, err := repo.IsAdmin(caller.Hex())
	if err != nil {
		return err
	}
	if !ok {
		return errorsmod.Wrapf(types.ErrAdminBadRole, "%s is not a registry admin", caller.Hex())
	}
	return nil
}

// LoadParams reads the params row inside a transaction. A registry that was
// never bootstrapped reports ErrNotExist.
func LoadParams(repo *store.Repo) (*store.Params, error) {
	params, err := repo.GetParams()
	if err != nil {
		return nil, err
	}
	if params == nil {
		return nil, errorsmod.Wrap(types.ErrNotExist, "quorum params not initialised")
	}
	return params, nil
}
