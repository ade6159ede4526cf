package orders

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

func sized(family types.ChainFamily, bz []byte) bool {
	n, ok := family.AddressLength()
	return ok && len(bz) == n
}

// validateCreation checks every address against the family of the chain it
// lives on.
func (l *Ledger) validateCreation(maker []byte, c OrderCreation, affiliate *AffiliateFee) error {
	local, err := l.settings.Chains.Family(l.settings.LocalChainID)
	if err != nil {
		return err
	}
	if c.TakeChainID == l.settings.LocalChainID {
		return errorsmod.Wrapf(types.ErrWrongChain, "take chain %d is the give chain", c.TakeChainID)
	}
	dst, err := l.settings.Chains.Family(c.TakeChainID)
	if err != nil {
		return err
	}

	switch {
	case !sized(local, maker):
		return errorsmod.Wrap(types.ErrWrongArgument, "maker address")
	case !sized(local, c.GiveToken):
		return errorsmod.Wrap(types.ErrWrongArgument, "give token address")
	case !sized(dst, c.TakeToken):
		return errorsmod.Wrap(types.ErrWrongArgument, "take token address")
	case c.GiveAmount.IsNil() || !c.GiveAmount.IsPositive():
		return errorsmod.Wrap(types.ErrWrongArgument, "give amount must be positive")
	case c.TakeAmount.IsNil() || !c.TakeAmount.IsPositive():
		return errorsmod.Wrap(types.ErrWrongArgument, "take amount must be positive")
	case !sized(dst, c.ReceiverDst):
		return errorsmod.Wrapf(types.ErrBadReceiverDstSize, "%d bytes for a %s chain", len(c.ReceiverDst), dst)
	case !sized(dst, c.OrderAuthorityAddressDst):
		return errorsmod.Wrapf(types.ErrBadOrderAuthorityDstSize, "%d bytes for a %s chain", len(c.OrderAuthorityAddressDst), dst)
	case len(c.AllowedTakerDst) > 0 && !sized(dst, c.AllowedTakerDst):
		return errorsmod.Wrapf(types.ErrBadAllowedTakerDst, "%d bytes for a %s chain", len(c.AllowedTakerDst), dst)
	case len(c.AllowedCancelBeneficiarySrc) > 0 && !sized(local, c.AllowedCancelBeneficiarySrc):
		return errorsmod.Wrapf(types.ErrBadAllowedCancelBeneficiarySrc, "%d bytes for a %s chain", len(c.AllowedCancelBeneficiarySrc), local)
	case !sized(local, c.GivePatchAuthoritySrc):
		return errorsmod.Wrap(types.ErrWrongArgument, "give patch authority address")
	case len(c.ExternalCall) > 0 && !l.settings.ExternalCallEnabled:
		return errorsmod.Wrap(types.ErrExternalCallDisables, "external calls are disabled")
	}

	if affiliate != nil && !affiliate.Amount.IsNil() && affiliate.Amount.IsPositive() && !sized(local, affiliate.Beneficiary) {
		return errorsmod.Wrap(types.ErrWrongArgument, "affiliate beneficiary address")
	}
	return nil
}
