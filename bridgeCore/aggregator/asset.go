package aggregator

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/pushchain/push-bridge-core/bridgeCore/registry"
	"github.com/pushchain/push-bridge-core/bridgeCore/sigutil"
	"github.com/pushchain/push-bridge-core/bridgeCore/store"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// AssetMetadata describes a native token oracles confirm for wrapping.
type AssetMetadata struct {
	Token    []byte `json:"token"`
	ChainID  uint64 `json:"chain_id"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// DebridgeID of the native token.
func (m AssetMetadata) DebridgeID() common.Hash {
	return types.DebridgeID(m.ChainID, m.Token)
}

// DeployID oracles vote on.
func (m AssetMetadata) DeployID() common.Hash {
	return types.DeployID(m.DebridgeID(), m.Name, m.Symbol, m.Decimals)
}

// DeployInfo is a confirmed or pending asset registration.
type DeployInfo struct {
	AssetMetadata
	DeployID      common.Hash `json:"deploy_id"`
	DebridgeID    common.Hash `json:"debridge_id"`
	Confirmations uint32      `json:"confirmations"`
	IsConfirmed   bool        `json:"is_confirmed"`
}

// Asset is a debridge id bound to its wrapped token.
type Asset struct {
	DebridgeID   common.Hash `json:"debridge_id"`
	ChainID      uint64      `json:"chain_id"`
	NativeToken  []byte      `json:"native_token"`
	WrappedToken []byte      `json:"wrapped_token"`
	DeployID     common.Hash `json:"deploy_id"`
}

// ConfirmNewAsset records oracle's vote for registering a wrapped asset.
func (a *Aggregator) ConfirmNewAsset(ctx context.Context, oracle common.Address, meta AssetMetadata) (common.Hash, bool, error) {
	return a.confirmAsset(ctx, variantCount, oracle, meta)
}

// ConfirmNewAssetSigned votes for meta as the oracle that signed its deploy id.
func (a *Aggregator) ConfirmNewAssetSigned(ctx context.Context, meta AssetMetadata, signature []byte) (common.Hash, bool, error) {
	deployID := meta.DeployID()
	signer, err := sigutil.RecoverSigner(deployID, signature)
	if err != nil {
		a.metrics.ObserveVote(variantSignature, err)
		return deployID, false, err
	}
	return a.confirmAsset(ctx, variantSignature, signer, meta)
}

func (a *Aggregator) confirmAsset(ctx context.Context, variant string, oracle common.Address, meta AssetMetadata) (common.Hash, bool, error) {
	if len(meta.Token) == 0 {
		return common.Hash{}, false, errorsmod.Wrap(types.ErrWrongArgument, "empty token address")
	}
	debridgeID := meta.DebridgeID()
	deployID := meta.DeployID()

	unlock := a.locks.Lock(deployID, debridgeID)
	defer unlock()

	var res voteResult
	err := a.db.Transact(ctx, func(repo *store.Repo) error {
		asset, err := repo.FindAsset(debridgeID.Hex())
		if err != nil {
			return err
		}
		if asset != nil && asset.WrappedToken != "" {
			return errorsmod.Wrapf(types.ErrAssetAlreadyExist, "debridge %s", debridgeID.Hex())
		}
		if err := repo.CreateDeployInfo(&store.DeployInfo{
			DeployID:    deployID.Hex(),
			DebridgeID:  debridgeID.Hex(),
			ChainID:     meta.ChainID,
			NativeToken: hexutil.Encode(meta.Token),
			Name:        meta.Name,
			Symbol:      meta.Symbol,
			Decimals:    meta.Decimals,
		}); err != nil {
			return err
		}
		res, err = recordVote(repo, a.clock, types.KindAsset, deployID, oracle)
		return err
	})
	a.metrics.ObserveVote(variant, err)
	if err != nil {
		a.logger.Debug().
			Err(err).
			Str("oracle", oracle.Hex()).
			Str("deploy_id", deployID.Hex()).
			Msg("asset confirmation rejected")
		return deployID, false, err
	}
	a.logVote(variant, types.KindAsset, oracle, deployID, res)
	return deployID, res.Confirmed, nil
}

// DeployAsset binds wrappedToken to the asset of a confirmed deploy id.
// caller must be a registry admin.
func (a *Aggregator) DeployAsset(ctx context.Context, caller common.Address, deployID common.Hash, wrappedToken []byte) (common.Hash, error) {
	if len(wrappedToken) == 0 {
		return common.Hash{}, errorsmod.Wrap(types.ErrWrongArgument, "empty wrapped token")
	}

	unlock := a.locks.Lock(deployID)
	defer unlock()

	var debridgeID common.Hash
	err := a.db.Transact(ctx, func(repo *store.Repo) error {
		if err := registry.RequireAdmin(repo, caller); err != nil {
			return err
		}
		info, err := repo.FindDeployInfo(deployID.Hex())
		if err != nil {
			return err
		}
		sub, err := repo.FindSubmission(deployID.Hex())
		if err != nil {
			return err
		}
		if info == nil || sub == nil || !sub.IsConfirmed {
			return errorsmod.Wrapf(types.ErrAssetNotConfirmed, "deploy %s", deployID.Hex())
		}
		debridgeID = common.HexToHash(info.DebridgeID)

		asset, err := repo.FindAsset(info.DebridgeID)
		if err != nil {
			return err
		}
		if asset != nil && asset.WrappedToken != "" {
			return errorsmod.Wrapf(types.ErrAssetAlreadyExist, "debridge %s", info.DebridgeID)
		}
		return repo.SaveAsset(&store.Asset{
			DebridgeID:   info.DebridgeID,
			ChainID:      info.ChainID,
			NativeToken:  info.NativeToken,
			WrappedToken: hexutil.Encode(wrappedToken),
			DeployID:     info.DeployID,
		})
	})
	if err != nil {
		a.logger.Debug().Err(err).Str("deploy_id", deployID.Hex()).Msg("asset deploy rejected")
		return debridgeID, err
	}
	a.logger.Info().
		Str("deploy_id", deployID.Hex()).
		Str("debridge_id", debridgeID.Hex()).
		Str("wrapped_token", hexutil.Encode(wrappedToken)).
		Msg("asset deployed")
	return debridgeID, nil
}

func (a *Aggregator) GetDeployInfo(ctx context.Context, deployID common.Hash) (DeployInfo, error) {
	var out DeployInfo
	err := a.db.View(ctx, func(repo *store.Repo) error {
		info, err := repo.FindDeployInfo(deployID.Hex())
		if err != nil {
			return err
		}
		if info == nil {
			return errorsmod.Wrapf(types.ErrNotExist, "deploy %s", deployID.Hex())
		}
		sub, err := repo.FindSubmission(deployID.Hex())
		if err != nil {
			return err
		}
		out = DeployInfo{
			AssetMetadata: AssetMetadata{
				Token:    common.FromHex(info.NativeToken),
				ChainID:  info.ChainID,
				Name:     info.Name,
				Symbol:   info.Symbol,
				Decimals: info.Decimals,
			},
			DeployID:   deployID,
			DebridgeID: common.HexToHash(info.DebridgeID),
		}
		if sub != nil {
			out.Confirmations = sub.Confirmations
			out.IsConfirmed = sub.IsConfirmed
		}
		return nil
	})
	return out, err
}

func (a *Aggregator) GetAsset(ctx context.Context, debridgeID common.Hash) (Asset, error) {
	var out Asset
	err := a.db.View(ctx, func(repo *store.Repo) error {
		asset, err := repo.FindAsset(debridgeID.Hex())
		if err != nil {
			return err
		}
		if asset == nil {
			return errorsmod.Wrapf(types.ErrNotExist, "asset %s", debridgeID.Hex())
		}
		out = Asset{
			DebridgeID:   debridgeID,
			ChainID:      asset.ChainID,
			NativeToken:  common.FromHex(asset.NativeToken),
			WrappedToken: common.FromHex(asset.WrappedToken),
			DeployID:     common.HexToHash(asset.DeployID),
		}
		return nil
	})
	return out, err
}
