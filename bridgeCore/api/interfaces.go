package api

import (
	"context"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/pushchain/push-bridge-core/bridgeCore/aggregator"
	"github.com/pushchain/push-bridge-core/bridgeCore/gate"
	"github.com/pushchain/push-bridge-core/bridgeCore/orders"
	"github.com/pushchain/push-bridge-core/bridgeCore/registry"
)

// Backend defines the methods needed by the API server
type Backend interface {
	GetParams(ctx context.Context) (registry.Params, error)
	ListOracles(ctx context.Context) ([]registry.Oracle, error)

	GetSubmissionInfo(ctx context.Context, id common.Hash) (aggregator.SubmissionInfo, error)
	SubmitSigned(ctx context.Context, id common.Hash, signature []byte) (common.Address, bool, error)
	CheckConfirmations(ctx context.Context, req gate.CheckRequest) error
	Claim(ctx context.Context, p gate.ClaimParams) (common.Hash, error)

	ConfirmNewAssetSigned(ctx context.Context, meta aggregator.AssetMetadata, signature []byte) (common.Hash, bool, error)
	GetAsset(ctx context.Context, debridgeID common.Hash) (aggregator.Asset, error)
	GetDeployInfo(ctx context.Context, deployID common.Hash) (aggregator.DeployInfo, error)

	GetOrder(ctx context.Context, id common.Hash) (orders.OrderInfo, error)
	// CreateOrder uses the maker's next nonce, or salt when it is set.
	CreateOrder(ctx context.Context, maker []byte, c orders.OrderCreation, salt *uint64, affiliate *orders.AffiliateFee) (common.Hash, error)
	PatchOrderGive(ctx context.Context, caller []byte, id common.Hash, add math.Int) error
	ClaimUnlock(ctx context.Context, caller []byte, id common.Hash, msg orders.ClaimMessage) error
	ClaimOrderCancel(ctx context.Context, caller []byte, id common.Hash, msg orders.ClaimMessage) error
	WithdrawAffiliateFee(ctx context.Context, caller []byte, id common.Hash) (math.Int, error)
}
