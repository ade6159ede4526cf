package types

import (
	"math/big"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

var (
	uint64Type, _  = abi.NewType("uint64", "", nil)
	uint256Type, _ = abi.NewType("uint256", "", nil)
	bytesType, _   = abi.NewType("bytes", "", nil)

	// ABI layout of an order id preimage
	orderIDArgs = abi.Arguments{
		{Name: "makerOrderNonce", Type: uint64Type},
		{Name: "makerSrc", Type: bytesType},
		{Name: "giveChainId", Type: uint256Type},
		{Name: "giveTokenAddress", Type: bytesType},
		{Name: "giveAmount", Type: uint256Type},
		{Name: "takeChainId", Type: uint256Type},
		{Name: "takeTokenAddress", Type: bytesType},
		{Name: "takeAmount", Type: uint256Type},
		{Name: "receiverDst", Type: bytesType},
		{Name: "givePatchAuthoritySrc", Type: bytesType},
		{Name: "orderAuthorityAddressDst", Type: bytesType},
		{Name: "allowedTakerDst", Type: bytesType},
		{Name: "allowedCancelBeneficiarySrc", Type: bytesType},
		{Name: "externalCall", Type: bytesType},
	}

	submissionAuthSeed = []byte("SUBMISSION_AUTH")
)

// SubmissionParams are the fields a transfer submission id commits to.
type SubmissionParams struct {
	DebridgeID  common.Hash
	ChainIDFrom uint64
	ChainIDTo   uint64
	Amount      math.Int
	Receiver    []byte
	Nonce       uint64
	AutoParams  []byte
}

func u256(v uint64) []byte {
	return common.BigToHash(new(big.Int).SetUint64(v)).Bytes()
}

func bigOf(a math.Int) *big.Int {
	if a.IsNil() {
		return new(big.Int)
	}
	return a.BigInt()
}

func amountWord(a math.Int) []byte {
	return common.BigToHash(bigOf(a)).Bytes()
}

// DebridgeID binds a (chain, token) pair across the bridge.
func DebridgeID(chainID uint64, token []byte) common.Hash {
	return crypto.Keccak256Hash(u256(chainID), token)
}

// DeployID identifies the asset registration of debridgeID with the given metadata.
func DeployID(debridgeID common.Hash, name, symbol string, decimals uint8) common.Hash {
	return crypto.Keccak256Hash(debridgeID.Bytes(), []byte(name), []byte(symbol), []byte{decimals})
}

// SubmissionID derives the id oracles vote on for a transfer.
func SubmissionID(p SubmissionParams) common.Hash {
	parts := [][]byte{
		u256(SubmissionPrefix),
		p.DebridgeID.Bytes(),
		u256(p.ChainIDFrom),
		u256(p.ChainIDTo),
		amountWord(p.Amount),
		p.Receiver,
		u256(p.Nonce),
	}
	if len(p.AutoParams) > 0 {
		parts = append(parts, p.AutoParams)
	}
	return crypto.Keccak256Hash(parts...)
}

// ClaimSubmissionID is the id carried by the cross-chain message that claims an order.
func ClaimSubmissionID(sourceChainID, localChainID uint64, nativeSender, payload []byte, nonce uint64) common.Hash {
	return crypto.Keccak256Hash(
		u256(SubmissionPrefix),
		u256(sourceChainID),
		u256(localChainID),
		nativeSender,
		crypto.Keccak256(payload),
		u256(nonce),
	)
}

// SubmissionAuthority returns the 32-byte authority bound to a submission id.
func SubmissionAuthority(submissionID common.Hash) []byte {
	return crypto.Keccak256(submissionAuthSeed, submissionID.Bytes())
}

// OrderID derives the id of an order from its maker-scoped nonce and offers.
func OrderID(o Order) (common.Hash, error) {
	bz, err := orderIDArgs.Pack(
		o.MakerOrderNonce,
		nonNil(o.MakerSrc),
		new(big.Int).SetUint64(o.Give.ChainID),
		nonNil(o.Give.Token),
		bigOf(o.Give.Amount),
		new(big.Int).SetUint64(o.Take.ChainID),
		nonNil(o.Take.Token),
		bigOf(o.Take.Amount),
		nonNil(o.ReceiverDst),
		nonNil(o.GivePatchAuthoritySrc),
		nonNil(o.OrderAuthorityAddressDst),
		nonNil(o.AllowedTakerDst),
		nonNil(o.AllowedCancelBeneficiarySrc),
		nonNil(o.ExternalCall),
	)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "ABI encode order failed")
	}
	return crypto.Keccak256Hash(bz), nil
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
