package types

import (
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// ChainFamily selects the address encoding of a chain.
type ChainFamily string

const (
	FamilyEVM    ChainFamily = "evm"
	FamilySolana ChainFamily = "solana"
)

// addressLengths is the expected raw address length per chain family.
var addressLengths = map[ChainFamily]int{
	FamilyEVM:    common.AddressLength,
	FamilySolana: solana.PublicKeyLength,
}

// AddressLength returns the expected raw length of an address of this family.
func (f ChainFamily) AddressLength() (int, bool) {
	n, ok := addressLengths[f]
	return n, ok
}

// ParseChainFamily validates a family name.
func ParseChainFamily(s string) (ChainFamily, error) {
	f := ChainFamily(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := addressLengths[f]; !ok {
		return "", errorsmod.Wrapf(ErrWrongArgument, "unknown chain family %q", s)
	}
	return f, nil
}

// Address is a chain-family tagged address.
type Address struct {
	Family ChainFamily
	Bytes  []byte
}

// Validate checks the byte length against the family table.
func (a Address) Validate() error {
	n, ok := a.Family.AddressLength()
	if !ok {
		return errorsmod.Wrapf(ErrWrongArgument, "unknown chain family %q", a.Family)
	}
	if len(a.Bytes) != n {
		return errorsmod.Wrapf(ErrWrongArgument, "%s address must be %d bytes, got %d", a.Family, n, len(a.Bytes))
	}
	return nil
}

func (a Address) String() string {
	switch a.Family {
	case FamilyEVM:
		if len(a.Bytes) == common.AddressLength {
			return common.BytesToAddress(a.Bytes).Hex()
		}
	case FamilySolana:
		if len(a.Bytes) == solana.PublicKeyLength {
			return solana.PublicKeyFromBytes(a.Bytes).String()
		}
	}
	return fmt.Sprintf("0x%x", a.Bytes)
}

// ParseAddress decodes a hex (evm) or base58 (solana) address.
func ParseAddress(family ChainFamily, text string) (Address, error) {
	switch family {
	case FamilyEVM:
		if !common.IsHexAddress(text) {
			return Address{}, errorsmod.Wrapf(ErrWrongArgument, "invalid evm address %q", text)
		}
		return Address{Family: family, Bytes: common.HexToAddress(text).Bytes()}, nil
	case FamilySolana:
		bz, err := base58.Decode(text)
		if err != nil {
			return Address{}, errorsmod.Wrapf(ErrWrongArgument, "invalid base58 address %q: %s", text, err)
		}
		addr := Address{Family: family, Bytes: bz}
		if err := addr.Validate(); err != nil {
			return Address{}, err
		}
		return addr, nil
	default:
		return Address{}, errorsmod.Wrapf(ErrWrongArgument, "unknown chain family %q", family)
	}
}

// ChainRegistry maps a chain id to its address family.
type ChainRegistry map[uint64]ChainFamily

// Family returns the family of chainID or ErrWrongChain.
func (r ChainRegistry) Family(chainID uint64) (ChainFamily, error) {
	f, ok := r[chainID]
	if !ok {
		return "", errorsmod.Wrapf(ErrWrongChain, "chain %d is not supported", chainID)
	}
	return f, nil
}

// ValidateFor checks bz as an address on chainID.
func (r ChainRegistry) ValidateFor(chainID uint64, bz []byte) error {
	f, err := r.Family(chainID)
	if err != nil {
		return err
	}
	return Address{Family: f, Bytes: bz}.Validate()
}

// Format renders bz the way chainID displays addresses.
func (r ChainRegistry) Format(chainID uint64, bz []byte) string {
	f, ok := r[chainID]
	if !ok {
		return fmt.Sprintf("0x%x", bz)
	}
	return Address{Family: f, Bytes: bz}.String()
}
