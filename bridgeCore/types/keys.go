package types

const (
	ModuleName = "bridge"

	// SubmissionPrefix is mixed into every transfer submission id.
	SubmissionPrefix uint64 = 1

	// BpsDenominator is the basis-point scale of percent fees.
	BpsDenominator uint64 = 10000
)

// SubmissionKind tells which accumulator a confirmation record belongs to.
type SubmissionKind string

const (
	KindSubmission SubmissionKind = "submission"
	KindAsset      SubmissionKind = "asset"
)
