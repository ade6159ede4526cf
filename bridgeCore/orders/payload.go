package orders

import (
	"bytes"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// Instruction is the 4-byte selector at the head of a claim payload.
type Instruction [4]byte

var (
	InstructionUnlock = selector("claimUnlock(bytes32,bytes)")
	InstructionCancel = selector("claimCancel(bytes32,bytes)")
)

func selector(signature string) Instruction {
	var out Instruction
	copy(out[:], crypto.Keccak256([]byte(signature))[:4])
	return out
}

func (i Instruction) String() string {
	switch i {
	case InstructionUnlock:
		return "unlock"
	case InstructionCancel:
		return "cancel"
	default:
		return common.Bytes2Hex(i[:])
	}
}

var claimPayloadArgs = func() abi.Arguments {
	bytes32Type, _ := abi.NewType("bytes32", "", nil)
	bytesType, _ := abi.NewType("bytes", "", nil)
	return abi.Arguments{
		{Name: "orderId", Type: bytes32Type},
		{Name: "beneficiary", Type: bytesType},
	}
}()

// EncodeClaimPayload builds the payload a destination chain sends back to
// settle orderID: the instruction selector followed by
// abi.encode(bytes32 orderId, bytes beneficiary).
func EncodeClaimPayload(instruction Instruction, orderID common.Hash, beneficiary []byte) ([]byte, error) {
	if beneficiary == nil {
		beneficiary = []byte{}
	}
	args, err := claimPayloadArgs.Pack([32]byte(orderID), beneficiary)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrWrongArgument, "encode claim payload: %s", err)
	}
	return append(bytes.Clone(instruction[:]), args...), nil
}

// DecodeClaimPayload splits a claim payload into its instruction and accounts.
func DecodeClaimPayload(payload []byte) (Instruction, common.Hash, []byte, error) {
	var instruction Instruction
	if len(payload) < len(instruction) {
		return instruction, common.Hash{}, nil, errorsmod.Wrapf(types.ErrWrongClaimParentInstruction, "payload of %d bytes", len(payload))
	}
	copy(instruction[:], payload)

	values, err := claimPayloadArgs.Unpack(payload[len(instruction):])
	if err != nil {
		return instruction, common.Hash{}, nil, errorsmod.Wrapf(types.ErrWrongClaimParentAccounts, "decode claim payload: %s", err)
	}
	orderID, ok1 := values[0].([32]byte)
	beneficiary, ok2 := values[1].([]byte)
	if !ok1 || !ok2 {
		return instruction, common.Hash{}, nil, errorsmod.Wrap(types.ErrWrongClaimParentAccounts, "unexpected claim payload layout")
	}
	return instruction, common.Hash(orderID), beneficiary, nil
}
