package core

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/pushchain/push-bridge-core/bridgeCore/gate"
	"github.com/pushchain/push-bridge-core/bridgeCore/orders"
	"github.com/pushchain/push-bridge-core/bridgeCore/store"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// bookExecutor pays out claimed transfers in the escrow book. An asset
// native to the local chain is unlocked from escrow; any other asset is
// minted as its wrapped token.
type bookExecutor struct {
	book         *orders.Book
	localChainID uint64
}

func (e bookExecutor) ExecuteClaim(ctx context.Context, submissionID common.Hash, p gate.ClaimParams) error {
	repo, ok := store.FromContext(ctx)
	if !ok {
		return errors.New("claim executed outside a transaction")
	}
	asset, err := repo.FindAsset(p.DebridgeID.Hex())
	if err != nil {
		return err
	}
	if asset == nil {
		return errorsmod.Wrapf(types.ErrNotExist, "asset %s", p.DebridgeID.Hex())
	}
	if asset.ChainID == e.localChainID {
		native, err := hexutil.Decode(asset.NativeToken)
		if err != nil {
			return errors.Wrapf(err, "asset %s native token", p.DebridgeID.Hex())
		}
		return e.book.Release(ctx, native, p.Receiver, p.Amount)
	}
	if asset.WrappedToken == "" {
		return errorsmod.Wrapf(types.ErrAssetNotConfirmed, "asset %s has no wrapped token", p.DebridgeID.Hex())
	}
	wrapped, err := hexutil.Decode(asset.WrappedToken)
	if err != nil {
		return errors.Wrapf(err, "asset %s wrapped token", p.DebridgeID.Hex())
	}
	return e.book.Deposit(ctx, wrapped, p.Receiver, p.Amount)
}
