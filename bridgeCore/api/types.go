package api

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/pushchain/push-bridge-core/bridgeCore/aggregator"
	"github.com/pushchain/push-bridge-core/bridgeCore/orders"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// QueryResponse represents the standard query response format
type QueryResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse carries the registered error so relayers can branch on it.
type ErrorResponse struct {
	Error     string         `json:"error"`
	Codespace string         `json:"codespace,omitempty"`
	Code      uint32         `json:"code,omitempty"`
	Category  types.Category `json:"category,omitempty"`
	Outcome   types.Outcome  `json:"outcome,omitempty"`
}

// SignatureRequest is the body of POST /api/v1/submissions/{id}/signatures
type SignatureRequest struct {
	Signature string `json:"signature"`
}

type SignatureResponse struct {
	Oracle    common.Address `json:"oracle"`
	Confirmed bool           `json:"confirmed"`
}

type OfferView struct {
	ChainID uint64        `json:"chain_id"`
	Token   hexutil.Bytes `json:"token"`
	Amount  string        `json:"amount"`
}

type OrderView struct {
	ID                          common.Hash   `json:"id"`
	Status                      string        `json:"status"`
	MakerOrderNonce             uint64        `json:"maker_order_nonce"`
	MakerSrc                    hexutil.Bytes `json:"maker_src"`
	Give                        OfferView     `json:"give"`
	Take                        OfferView     `json:"take"`
	ReceiverDst                 hexutil.Bytes `json:"receiver_dst"`
	GivePatchAuthoritySrc       hexutil.Bytes `json:"give_patch_authority_src"`
	OrderAuthorityAddressDst    hexutil.Bytes `json:"order_authority_address_dst"`
	AllowedTakerDst             hexutil.Bytes `json:"allowed_taker_dst,omitempty"`
	AllowedCancelBeneficiarySrc hexutil.Bytes `json:"allowed_cancel_beneficiary_src,omitempty"`
	ExternalCall                hexutil.Bytes `json:"external_call,omitempty"`
	GiveAmount                  string        `json:"give_amount"`
	FixFee                      string        `json:"fix_fee"`
	PercentFee                  string        `json:"percent_fee"`
	AffiliateFee                string        `json:"affiliate_fee"`
	AffiliateTo                 hexutil.Bytes `json:"affiliate_to,omitempty"`
	AffiliatePaid               bool          `json:"affiliate_paid"`
	ClaimedBy                   *common.Hash  `json:"claimed_by,omitempty"`
}

func toOrderView(o orders.OrderInfo) OrderView {
	v := OrderView{
		ID:                          o.ID,
		Status:                      string(o.Status),
		MakerOrderNonce:             o.Order.MakerOrderNonce,
		MakerSrc:                    o.Order.MakerSrc,
		Give:                        OfferView{ChainID: o.Order.Give.ChainID, Token: o.Order.Give.Token, Amount: o.Order.Give.Amount.String()},
		Take:                        OfferView{ChainID: o.Order.Take.ChainID, Token: o.Order.Take.Token, Amount: o.Order.Take.Amount.String()},
		ReceiverDst:                 o.Order.ReceiverDst,
		GivePatchAuthoritySrc:       o.Order.GivePatchAuthoritySrc,
		OrderAuthorityAddressDst:    o.Order.OrderAuthorityAddressDst,
		AllowedTakerDst:             o.Order.AllowedTakerDst,
		AllowedCancelBeneficiarySrc: o.Order.AllowedCancelBeneficiarySrc,
		ExternalCall:                o.Order.ExternalCall,
		GiveAmount:                  o.GiveAmount.String(),
		FixFee:                      o.FixFee.String(),
		PercentFee:                  o.PercentFee.String(),
		AffiliateFee:                o.AffiliateFee.String(),
		AffiliateTo:                 o.AffiliateTo,
		AffiliatePaid:               o.AffiliatePaid,
	}
	if o.ClaimedBy != (common.Hash{}) {
		claimedBy := o.ClaimedBy
		v.ClaimedBy = &claimedBy
	}
	return v
}

// CheckBody is the body of POST /api/v1/submissions/{id}/check. The
// debridge id and amount are only needed for the amount threshold.
type CheckBody struct {
	DebridgeID common.Hash   `json:"debridge_id"`
	Amount     string        `json:"amount,omitempty"`
	Signatures hexutil.Bytes `json:"signatures,omitempty"`
}

type CheckResponse struct {
	SubmissionID common.Hash `json:"submission_id"`
	Executable   bool        `json:"executable"`
}

// ClaimBody is the body of POST /api/v1/claims
type ClaimBody struct {
	DebridgeID  common.Hash   `json:"debridge_id"`
	ChainIDFrom uint64        `json:"chain_id_from"`
	ChainIDTo   uint64        `json:"chain_id_to"`
	Amount      string        `json:"amount"`
	Receiver    hexutil.Bytes `json:"receiver"`
	Nonce       uint64        `json:"nonce"`
	AutoParams  hexutil.Bytes `json:"auto_params,omitempty"`
	Signatures  hexutil.Bytes `json:"signatures,omitempty"`
}

type ClaimResponse struct {
	SubmissionID common.Hash `json:"submission_id"`
}

// AssetConfirmBody is the body of POST /api/v1/assets/confirm. The
// signature is over the deploy id of the metadata.
type AssetConfirmBody struct {
	Token     hexutil.Bytes `json:"token"`
	ChainID   uint64        `json:"chain_id"`
	Name      string        `json:"name"`
	Symbol    string        `json:"symbol"`
	Decimals  uint8         `json:"decimals"`
	Signature string        `json:"signature"`
}

type AssetConfirmResponse struct {
	DeployID  common.Hash `json:"deploy_id"`
	Confirmed bool        `json:"confirmed"`
}

type AssetView struct {
	DebridgeID   common.Hash   `json:"debridge_id"`
	ChainID      uint64        `json:"chain_id"`
	NativeToken  hexutil.Bytes `json:"native_token"`
	WrappedToken hexutil.Bytes `json:"wrapped_token,omitempty"`
	DeployID     common.Hash   `json:"deploy_id"`
}

type DeployView struct {
	DeployID      common.Hash   `json:"deploy_id"`
	DebridgeID    common.Hash   `json:"debridge_id"`
	Token         hexutil.Bytes `json:"token"`
	ChainID       uint64        `json:"chain_id"`
	Name          string        `json:"name"`
	Symbol        string        `json:"symbol"`
	Decimals      uint8         `json:"decimals"`
	Confirmations uint32        `json:"confirmations"`
	IsConfirmed   bool          `json:"is_confirmed"`
}

// CreateOrderBody is the body of POST /api/v1/orders. Without a salt the
// order takes the maker's next nonce.
type CreateOrderBody struct {
	Maker                       hexutil.Bytes `json:"maker"`
	Salt                        *uint64       `json:"salt,omitempty"`
	GiveToken                   hexutil.Bytes `json:"give_token"`
	GiveAmount                  string        `json:"give_amount"`
	TakeChainID                 uint64        `json:"take_chain_id"`
	TakeToken                   hexutil.Bytes `json:"take_token"`
	TakeAmount                  string        `json:"take_amount"`
	ReceiverDst                 hexutil.Bytes `json:"receiver_dst"`
	GivePatchAuthoritySrc       hexutil.Bytes `json:"give_patch_authority_src"`
	OrderAuthorityAddressDst    hexutil.Bytes `json:"order_authority_address_dst"`
	AllowedTakerDst             hexutil.Bytes `json:"allowed_taker_dst,omitempty"`
	AllowedCancelBeneficiarySrc hexutil.Bytes `json:"allowed_cancel_beneficiary_src,omitempty"`
	ExternalCall                hexutil.Bytes `json:"external_call,omitempty"`
	AffiliateTo                 hexutil.Bytes `json:"affiliate_to,omitempty"`
	AffiliateFee                string        `json:"affiliate_fee,omitempty"`
}

type CreateOrderResponse struct {
	OrderID common.Hash `json:"order_id"`
}

// PatchOrderBody is the body of POST /api/v1/orders/{id}/patch
type PatchOrderBody struct {
	Caller hexutil.Bytes `json:"caller"`
	Amount string        `json:"amount"`
}

// OrderClaimBody is the body of the claim-unlock and claim-cancel routes.
// Caller is the call proxy delivering the message.
type OrderClaimBody struct {
	Caller         hexutil.Bytes `json:"caller"`
	ProgramID      hexutil.Bytes `json:"program_id"`
	Payload        hexutil.Bytes `json:"payload"`
	SourceChain    uint64        `json:"source_chain"`
	NativeSender   hexutil.Bytes `json:"native_sender"`
	Nonce          uint64        `json:"nonce"`
	SubmissionID   common.Hash   `json:"submission_id"`
	SubmissionAuth hexutil.Bytes `json:"submission_auth"`
	Signatures     hexutil.Bytes `json:"signatures,omitempty"`
}

// CallerBody is the body of POST /api/v1/orders/{id}/affiliate-fee
type CallerBody struct {
	Caller hexutil.Bytes `json:"caller"`
}

type AffiliateFeeResponse struct {
	Amount string `json:"amount"`
}

func (b CreateOrderBody) creation() (orders.OrderCreation, *orders.AffiliateFee, error) {
	giveAmount, err := types.ParseAmount(b.GiveAmount)
	if err != nil {
		return orders.OrderCreation{}, nil, err
	}
	takeAmount, err := types.ParseAmount(b.TakeAmount)
	if err != nil {
		return orders.OrderCreation{}, nil, err
	}
	c := orders.OrderCreation{
		GiveToken:                   b.GiveToken,
		GiveAmount:                  giveAmount,
		TakeChainID:                 b.TakeChainID,
		TakeToken:                   b.TakeToken,
		TakeAmount:                  takeAmount,
		ReceiverDst:                 b.ReceiverDst,
		GivePatchAuthoritySrc:       b.GivePatchAuthoritySrc,
		OrderAuthorityAddressDst:    b.OrderAuthorityAddressDst,
		AllowedTakerDst:             b.AllowedTakerDst,
		AllowedCancelBeneficiarySrc: b.AllowedCancelBeneficiarySrc,
		ExternalCall:                b.ExternalCall,
	}
	if len(b.AffiliateTo) == 0 && b.AffiliateFee == "" {
		return c, nil, nil
	}
	fee, err := types.ParseAmount(b.AffiliateFee)
	if err != nil {
		return orders.OrderCreation{}, nil, err
	}
	return c, &orders.AffiliateFee{Beneficiary: b.AffiliateTo, Amount: fee}, nil
}

func (b OrderClaimBody) message() orders.ClaimMessage {
	return orders.ClaimMessage{
		ProgramID:      b.ProgramID,
		Payload:        b.Payload,
		SourceChain:    b.SourceChain,
		NativeSender:   b.NativeSender,
		Nonce:          b.Nonce,
		SubmissionID:   b.SubmissionID,
		SubmissionAuth: b.SubmissionAuth,
		Signatures:     b.Signatures,
	}
}

func toAssetView(a aggregator.Asset) AssetView {
	return AssetView{
		DebridgeID:   a.DebridgeID,
		ChainID:      a.ChainID,
		NativeToken:  a.NativeToken,
		WrappedToken: a.WrappedToken,
		DeployID:     a.DeployID,
	}
}

func toDeployView(d aggregator.DeployInfo) DeployView {
	return DeployView{
		DeployID:      d.DeployID,
		DebridgeID:    d.DebridgeID,
		Token:         d.Token,
		ChainID:       d.ChainID,
		Name:          d.Name,
		Symbol:        d.Symbol,
		Decimals:      d.Decimals,
		Confirmations: d.Confirmations,
		IsConfirmed:   d.IsConfirmed,
	}
}
