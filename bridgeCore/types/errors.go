package types

import (
	errorsmod "cosmossdk.io/errors"
)

// Authorization errors
var (
	ErrOracleBadRole         = errorsmod.Register(ModuleName, 2, "oracle bad role")
	ErrAdminBadRole          = errorsmod.Register(ModuleName, 3, "admin bad role")
	ErrCallProxyBadRole      = errorsmod.Register(ModuleName, 4, "call proxy bad role")
	ErrOnlyCallableByAdmin   = errorsmod.Register(ModuleName, 5, "only callable by admin")
	ErrPatchAuthorityBadRole = errorsmod.Register(ModuleName, 6, "give patch authority bad role")
)

// State-consistency errors
var (
	ErrLowMinConfirmations       = errorsmod.Register(ModuleName, 10, "low min confirmations")
	ErrAssetAlreadyExist         = errorsmod.Register(ModuleName, 11, "asset already exist")
	ErrAssetNotConfirmed         = errorsmod.Register(ModuleName, 12, "asset not confirmed")
	ErrOrderAlreadyProcessed     = errorsmod.Register(ModuleName, 13, "order already processed")
	ErrSubmittedAlready          = errorsmod.Register(ModuleName, 14, "submitted already")
	ErrSubmissionUsed            = errorsmod.Register(ModuleName, 15, "submission used")
	ErrNotExist                  = errorsmod.Register(ModuleName, 16, "not exist")
	ErrOrderAlreadyExist         = errorsmod.Register(ModuleName, 17, "order already exist")
	ErrAffiliateFeeNotReadyToPay = errorsmod.Register(ModuleName, 18, "affiliate fee not ready to pay")
)

// Quorum errors
var (
	ErrSubmissionNotConfirmed        = errorsmod.Register(ModuleName, 20, "submission not confirmed")
	ErrSubmissionAmountNotConfirmed  = errorsmod.Register(ModuleName, 21, "submission amount not confirmed")
	ErrSubmissionBlocked             = errorsmod.Register(ModuleName, 22, "submission blocked")
	ErrNotConfirmedByRequiredOracles = errorsmod.Register(ModuleName, 23, "not confirmed by required oracles")
	ErrDuplicateSignatures           = errorsmod.Register(ModuleName, 24, "duplicate signatures")
)

// Input validation errors
var (
	ErrWrongArgument                  = errorsmod.Register(ModuleName, 30, "wrong argument")
	ErrOverflow                       = errorsmod.Register(ModuleName, 31, "overflow error")
	ErrBadReceiverDstSize             = errorsmod.Register(ModuleName, 32, "bad receiver dst size")
	ErrWrongPatchAmount               = errorsmod.Register(ModuleName, 33, "wrong patch amount")
	ErrSignatureInvalidLength         = errorsmod.Register(ModuleName, 34, "signature invalid length")
	ErrSignatureInvalidV              = errorsmod.Register(ModuleName, 35, "signature invalid v")
	ErrBadOrderAuthorityDstSize       = errorsmod.Register(ModuleName, 36, "bad order authority dst size")
	ErrBadAllowedTakerDst             = errorsmod.Register(ModuleName, 37, "bad allowed taker dst")
	ErrExternalCallDisables           = errorsmod.Register(ModuleName, 38, "external call disables")
	ErrBadAllowedCancelBeneficiarySrc = errorsmod.Register(ModuleName, 39, "bad allowed cancel beneficiary src")
	ErrWrongChain                     = errorsmod.Register(ModuleName, 40, "wrong chain")
	ErrSignatureInvalid               = errorsmod.Register(ModuleName, 41, "signature invalid")
)

// Claim-parent validation errors
var (
	ErrWrongClaimParentProgramID      = errorsmod.Register(ModuleName, 50, "wrong claim parent program id")
	ErrWrongClaimParentInstruction    = errorsmod.Register(ModuleName, 51, "wrong claim parent instruction")
	ErrWrongClaimParentAccounts       = errorsmod.Register(ModuleName, 52, "wrong claim parent accounts")
	ErrWrongClaimParentSubmission     = errorsmod.Register(ModuleName, 53, "wrong claim parent submission")
	ErrWrongClaimParentSubmissionAuth = errorsmod.Register(ModuleName, 54, "wrong claim parent submission auth")
	ErrWrongClaimParentNativeSender   = errorsmod.Register(ModuleName, 55, "wrong claim parent native sender")
	ErrWrongClaimParentSourceChain    = errorsmod.Register(ModuleName, 56, "wrong claim parent source chain")
)

// Category groups registered errors the way relayers branch on them.
type Category string

const (
	CategoryAuthorization Category = "AUTHORIZATION"
	CategoryState         Category = "STATE"
	CategoryQuorum        Category = "QUORUM"
	CategoryInput         Category = "INPUT"
	CategoryClaimParent   Category = "CLAIM_PARENT"
	CategoryInternal      Category = "INTERNAL"
)

// Outcome tells an external caller what to do after a failed call.
type Outcome string

const (
	// OutcomeDone means the logical action has already happened.
	OutcomeDone Outcome = "DONE"
	// OutcomeNotReady means the action may succeed later (e.g. once quorum is reached).
	OutcomeNotReady Outcome = "NOT_READY"
	// OutcomeRejected means the action will never succeed as submitted.
	OutcomeRejected Outcome = "REJECTED"
	// OutcomeTransient means the failure was not a protocol decision (I/O, database).
	OutcomeTransient Outcome = "TRANSIENT"
)

// Code returns the codespace and code of err. Unregistered errors report
// the undefined codespace.
func Code(err error) (string, uint32) {
	codespace, code, _ := errorsmod.ABCIInfo(err, false)
	return codespace, code
}

// CategoryOf maps an error to its category by code range.
func CategoryOf(err error) Category {
	if err == nil {
		return ""
	}
	codespace, code := Code(err)
	if codespace != ModuleName {
		return CategoryInternal
	}
	switch {
	case code < 10:
		return CategoryAuthorization
	case code < 20:
		return CategoryState
	case code < 30:
		return CategoryQuorum
	case code < 50:
		return CategoryInput
	case code < 60:
		return CategoryClaimParent
	default:
		return CategoryInternal
	}
}

// Classify tells whether err means "already done", "not yet ready",
// "permanently rejected" or a transient failure.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeDone
	case errorsmod.IsOf(err, ErrSubmittedAlready, ErrSubmissionUsed, ErrOrderAlreadyProcessed, ErrAssetAlreadyExist):
		return OutcomeDone
	case errorsmod.IsOf(err, ErrSubmissionNotConfirmed, ErrSubmissionAmountNotConfirmed, ErrAssetNotConfirmed, ErrAffiliateFeeNotReadyToPay):
		return OutcomeNotReady
	case CategoryOf(err) == CategoryInternal:
		return OutcomeTransient
	default:
		return OutcomeRejected
	}
}
