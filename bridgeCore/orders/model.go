package orders

import (
	"context"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/pushchain/push-bridge-core/bridgeCore/store"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// OrderInfo is the stored state of an order.
type OrderInfo struct {
	ID            common.Hash
	Order         types.Order
	Status        types.OrderStatus
	GiveAmount    math.Int // escrowed amount after fees
	FixFee        math.Int
	PercentFee    math.Int
	AffiliateFee  math.Int
	AffiliateTo   []byte
	AffiliatePaid bool
	ClaimedBy     common.Hash // zero until settled
}

func bytesKey(b []byte) string {
	return hexutil.Encode(b)
}

// decodeBytes reverses bytesKey. Stored values are always well formed.
func decodeBytes(s string) []byte {
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil
	}
	return b
}

func toModel(id common.Hash, o types.Order, fees types.FeeBreakdown, affiliateTo []byte) *store.Order {
	return &store.Order{
		ID:                          id.Hex(),
		MakerOrderNonce:             o.MakerOrderNonce,
		MakerSrc:                    bytesKey(o.MakerSrc),
		GiveChainID:                 o.Give.ChainID,
		GiveToken:                   bytesKey(o.Give.Token),
		GiveAmountOriginal:          o.Give.Amount.String(),
		TakeChainID:                 o.Take.ChainID,
		TakeToken:                   bytesKey(o.Take.Token),
		TakeAmount:                  o.Take.Amount.String(),
		ReceiverDst:                 bytesKey(o.ReceiverDst),
		GivePatchAuthoritySrc:       bytesKey(o.GivePatchAuthoritySrc),
		OrderAuthorityAddressDst:    bytesKey(o.OrderAuthorityAddressDst),
		AllowedTakerDst:             bytesKey(o.AllowedTakerDst),
		AllowedCancelBeneficiarySrc: bytesKey(o.AllowedCancelBeneficiarySrc),
		ExternalCall:                bytesKey(o.ExternalCall),
		Status:                      string(types.OrderCreated),
		GiveAmount:                  fees.GiveAmount.String(),
		FixFee:                      fees.FixFee.String(),
		PercentFee:                  fees.PercentFee.String(),
		AffiliateFee:                fees.AffiliateFee.String(),
		AffiliateTo:                 bytesKey(affiliateTo),
	}
}

func fromModel(o *store.Order) (OrderInfo, error) {
	info := OrderInfo{
		ID:     common.HexToHash(o.ID),
		Status: types.OrderStatus(o.Status),
		Order: types.Order{
			MakerOrderNonce:             o.MakerOrderNonce,
			MakerSrc:                    decodeBytes(o.MakerSrc),
			Give:                        types.Offer{ChainID: o.GiveChainID, Token: decodeBytes(o.GiveToken)},
			Take:                        types.Offer{ChainID: o.TakeChainID, Token: decodeBytes(o.TakeToken)},
			ReceiverDst:                 decodeBytes(o.ReceiverDst),
			GivePatchAuthoritySrc:       decodeBytes(o.GivePatchAuthoritySrc),
			OrderAuthorityAddressDst:    decodeBytes(o.OrderAuthorityAddressDst),
			AllowedTakerDst:             decodeBytes(o.AllowedTakerDst),
			AllowedCancelBeneficiarySrc: decodeBytes(o.AllowedCancelBeneficiarySrc),
			ExternalCall:                decodeBytes(o.ExternalCall),
		},
		AffiliateTo:   decodeBytes(o.AffiliateTo),
		AffiliatePaid: o.AffiliatePaid,
	}
	if o.ClaimedBy != "" {
		info.ClaimedBy = common.HexToHash(o.ClaimedBy)
	}

	for _, f := range []struct {
		dst *math.Int
		src string
	}{
		{&info.Order.Give.Amount, o.GiveAmountOriginal},
		{&info.Order.Take.Amount, o.TakeAmount},
		{&info.GiveAmount, o.GiveAmount},
		{&info.FixFee, o.FixFee},
		{&info.PercentFee, o.PercentFee},
		{&info.AffiliateFee, o.AffiliateFee},
	} {
		v, err := types.ParseAmount(f.src)
		if err != nil {
			return OrderInfo{}, err
		}
		*f.dst = v
	}
	return info, nil
}

// GetOrder returns the order stored under id, or ErrNotExist.
func (l *Ledger) GetOrder(ctx context.Context, id common.Hash) (OrderInfo, error) {
	var info OrderInfo
	err := l.db.View(ctx, func(repo *store.Repo) error {
		o, err := findOrder(repo, id)
		if err != nil {
			return err
		}
		info, err = fromModel(o)
		return err
	})
	return info, err
}

// GetMakerNonce returns the nonce the maker's next CreateOrder will use.
func (l *Ledger) GetMakerNonce(ctx context.Context, maker []byte) (uint64, error) {
	var nonce uint64
	err := l.db.View(ctx, func(repo *store.Repo) error {
		var err error
		nonce, err = repo.GetMakerNonce(bytesKey(maker))
		return err
	})
	return nonce, err
}
