package core

import (
	"context"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/pushchain/push-bridge-core/bridgeCore/aggregator"
	"github.com/pushchain/push-bridge-core/bridgeCore/gate"
	"github.com/pushchain/push-bridge-core/bridgeCore/orders"
	"github.com/pushchain/push-bridge-core/bridgeCore/registry"
)

func (c *Coordinator) GetParams(ctx context.Context) (registry.Params, error) {
	return c.registry.GetParams(ctx)
}

func (c *Coordinator) ListOracles(ctx context.Context) ([]registry.Oracle, error) {
	return c.registry.ListOracles(ctx)
}

func (c *Coordinator) GetSubmissionInfo(ctx context.Context, id common.Hash) (aggregator.SubmissionInfo, error) {
	return c.aggregator.GetSubmissionInfo(ctx, id)
}

// SubmitSigned always records into the aggregator, whichever strategy the
// gate uses.
func (c *Coordinator) SubmitSigned(ctx context.Context, id common.Hash, signature []byte) (common.Address, bool, error) {
	return c.aggregator.SubmitSigned(ctx, id, signature)
}

func (c *Coordinator) CheckConfirmations(ctx context.Context, req gate.CheckRequest) error {
	return c.gate.CheckConfirmations(ctx, req)
}

// Claim consumes a confirmed transfer and pays it out through the escrow
// book.
func (c *Coordinator) Claim(ctx context.Context, p gate.ClaimParams) (common.Hash, error) {
	return c.gate.Claim(ctx, p, c.executor)
}

func (c *Coordinator) ConfirmNewAssetSigned(ctx context.Context, meta aggregator.AssetMetadata, signature []byte) (common.Hash, bool, error) {
	return c.aggregator.ConfirmNewAssetSigned(ctx, meta, signature)
}

func (c *Coordinator) GetAsset(ctx context.Context, debridgeID common.Hash) (aggregator.Asset, error) {
	return c.aggregator.GetAsset(ctx, debridgeID)
}

func (c *Coordinator) GetDeployInfo(ctx context.Context, deployID common.Hash) (aggregator.DeployInfo, error) {
	return c.aggregator.GetDeployInfo(ctx, deployID)
}

func (c *Coordinator) GetOrder(ctx context.Context, id common.Hash) (orders.OrderInfo, error) {
	return c.ledger.GetOrder(ctx, id)
}

func (c *Coordinator) CreateOrder(ctx context.Context, maker []byte, o orders.OrderCreation, salt *uint64, affiliate *orders.AffiliateFee) (common.Hash, error) {
	if salt != nil {
		return c.ledger.CreateSaltedOrder(ctx, maker, o, *salt, affiliate)
	}
	return c.ledger.CreateOrder(ctx, maker, o, affiliate)
}

func (c *Coordinator) PatchOrderGive(ctx context.Context, caller []byte, id common.Hash, add math.Int) error {
	return c.ledger.PatchOrderGive(ctx, caller, id, add)
}

func (c *Coordinator) ClaimUnlock(ctx context.Context, caller []byte, id common.Hash, msg orders.ClaimMessage) error {
	return c.ledger.ClaimUnlock(ctx, caller, id, msg)
}

func (c *Coordinator) ClaimOrderCancel(ctx context.Context, caller []byte, id common.Hash, msg orders.ClaimMessage) error {
	return c.ledger.ClaimOrderCancel(ctx, caller, id, msg)
}

func (c *Coordinator) WithdrawAffiliateFee(ctx context.Context, caller []byte, id common.Hash) (math.Int, error) {
	return c.ledger.WithdrawAffiliateFee(ctx, caller, id)
}
