package types

import errorsmod "cosmossdk.io/errors"

// QuorumPolicy decides how many distinct oracle votes confirm a submission.
type QuorumPolicy struct {
	MinConfirmations      uint32 `json:"min_confirmations"`
	ConfirmationThreshold uint32 `json:"confirmation_threshold"` // confirmations per window above which excess applies
	ExcessConfirmations   uint32 `json:"excess_confirmations"`
}

// Validate checks the policy on its own, without oracle counts.
func (p QuorumPolicy) Validate() error {
	if p.MinConfirmations == 0 {
		return errorsmod.Wrap(ErrLowMinConfirmations, "min confirmations must be at least 1")
	}
	if p.ExcessConfirmations < p.MinConfirmations {
		return errorsmod.Wrapf(ErrLowMinConfirmations, "excess confirmations %d below min %d", p.ExcessConfirmations, p.MinConfirmations)
	}
	return nil
}

// CheckReachable enforces requiredOracles + minConfirmations <= validOracles.
func CheckReachable(minConfirmations, requiredOracles, validOracles uint32) error {
	if uint64(requiredOracles)+uint64(minConfirmations) > uint64(validOracles) {
		return errorsmod.Wrapf(ErrLowMinConfirmations,
			"%d required + %d min confirmations exceed %d valid oracles", requiredOracles, minConfirmations, validOracles)
	}
	return nil
}
