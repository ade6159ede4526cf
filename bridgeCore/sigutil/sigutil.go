// Package sigutil splits 65-byte r,s,v signatures and recovers the signer of a
// submission id signed with the Ethereum signed-message prefix.
package sigutil

import (
	"crypto/ecdsa"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// SignatureLength is the size of an r ‖ s ‖ v signature.
const SignatureLength = crypto.SignatureLength

// SplitSignature decomposes sig into r, s and a v normalised to 27 or 28.
func SplitSignature(sig []byte) (r, s [32]byte, v byte, err error) {
	if len(sig) != SignatureLength {
		return r, s, 0, errorsmod.Wrapf(types.ErrSignatureInvalidLength, "got %d bytes", len(sig))
	}
	copy(r[:], sig[:32])
	copy(s[:], sig[32:64])
	v = sig[64]
	if v < 27 {
		v += 27
	}
	if v != 27 && v != 28 {
		return r, s, 0, errorsmod.Wrapf(types.ErrSignatureInvalidV, "v=%d", sig[64])
	}
	return r, s, v, nil
}

// SplitSignatures cuts a concatenation of signatures into 65-byte parts.
func SplitSignatures(blob []byte) ([][]byte, error) {
	if len(blob)%SignatureLength != 0 {
		return nil, errorsmod.Wrapf(types.ErrSignatureInvalidLength, "%d bytes is not a multiple of %d", len(blob), SignatureLength)
	}
	out := make([][]byte, 0, len(blob)/SignatureLength)
	for i := 0; i < len(blob); i += SignatureLength {
		out = append(out, blob[i:i+SignatureLength])
	}
	return out, nil
}

// EthSignedMessageHash returns keccak256("\x19Ethereum Signed Message:\n32" ‖ id).
func EthSignedMessageHash(id common.Hash) common.Hash {
	return common.BytesToHash(accounts.TextHash(id.Bytes()))
}

// RecoverSigner returns the address that signed the prefixed hash of id.
func RecoverSigner(id common.Hash, sig []byte) (common.Address, error) {
	r, s, v, err := SplitSignature(sig)
	if err != nil {
		return common.Address{}, err
	}
	normalised := make([]byte, SignatureLength)
	copy(normalised[:32], r[:])
	copy(normalised[32:64], s[:])
	normalised[64] = v - 27

	pub, err := crypto.SigToPub(EthSignedMessageHash(id).Bytes(), normalised)
	if err != nil {
		return common.Address{}, errorsmod.Wrap(types.ErrSignatureInvalid, err.Error())
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Sign produces the signature an oracle submits for id.
func Sign(id common.Hash, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(EthSignedMessageHash(id).Bytes(), key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}
