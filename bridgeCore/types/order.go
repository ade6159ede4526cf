package types

import "cosmossdk.io/math"

// Offer is one side of an order: an amount of a token on a chain.
type Offer struct {
	ChainID uint64
	Token   []byte
	Amount  math.Int
}

// Order is the immutable part of a swap intent. Destination-side fields are
// raw bytes whose expected length depends on the chain family.
type Order struct {
	MakerOrderNonce             uint64
	MakerSrc                    []byte
	Give                        Offer
	Take                        Offer
	ReceiverDst                 []byte
	GivePatchAuthoritySrc       []byte
	OrderAuthorityAddressDst    []byte
	AllowedTakerDst             []byte
	AllowedCancelBeneficiarySrc []byte
	ExternalCall                []byte
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderCreated       OrderStatus = "CREATED"
	OrderClaimedUnlock OrderStatus = "CLAIMED_UNLOCK"
	OrderClaimedCancel OrderStatus = "CLAIMED_CANCEL"
)

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderClaimedUnlock || s == OrderClaimedCancel
}
