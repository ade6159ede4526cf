package aggregator

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/pushchain/push-bridge-core/bridgeCore/metrics"
	"github.com/pushchain/push-bridge-core/bridgeCore/registry"
	"github.com/pushchain/push-bridge-core/bridgeCore/sigutil"
	"github.com/pushchain/push-bridge-core/bridgeCore/store"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// SignatureVerifier decides quorum from a batch of oracle signatures
// presented together with the message, without stored votes.
type SignatureVerifier struct {
	clock   Clock
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewSignatureVerifier(clock Clock, m *metrics.Metrics, logger zerolog.Logger) *SignatureVerifier {
	return &SignatureVerifier{
		clock:   clock,
		metrics: m,
		logger:  logger.With().Str("component", "signature_verifier").Logger(),
	}
}

// Name identifies the strategy in logs and config.
func (v *SignatureVerifier) Name() string { return variantSignature }

// Confirmations counts distinct valid oracles among the signers of id.
// Signatures of non-oracles are ignored; a repeated signer fails with
// ErrDuplicateSignatures and a missing required oracle with
// ErrNotConfirmedByRequiredOracles. A batch that reaches the base quorum
// is also subject to the flood window.
func (v *SignatureVerifier) Confirmations(repo *store.Repo, id common.Hash, signatures []byte) (uint32, bool, error) {
	params, err := registry.LoadParams(repo)
	if err != nil {
		return 0, false, err
	}
	sigs, err := sigutil.SplitSignatures(signatures)
	if err != nil {
		return 0, false, err
	}

	signers := make(map[common.Address]struct{}, len(sigs))
	var count uint32
	for _, sig := range sigs {
		signer, err := sigutil.RecoverSigner(id, sig)
		if err != nil {
			return 0, false, err
		}
		if _, dup := signers[signer]; dup {
			return 0, false, errorsmod.Wrapf(types.ErrDuplicateSignatures, "signer %s", signer.Hex())
		}
		signers[signer] = struct{}{}

		valid, err := registry.IsValidOracleIn(repo, signer)
		if err != nil {
			return 0, false, err
		}
		if valid {
			count++
		}
	}

	oracles, err := repo.ListOracles()
	if err != nil {
		return 0, false, err
	}
	for _, o := range oracles {
		if !o.IsValid || !o.IsRequired {
			continue
		}
		if _, ok := signers[common.HexToAddress(o.Address)]; !ok {
			return count, false, errorsmod.Wrapf(types.ErrNotConfirmedByRequiredOracles, "missing %s", o.Address)
		}
	}

	if count < params.MinConfirmations {
		return count, false, nil
	}
	ok, err := admitInWindow(repo, params, v.clock, count)
	if err != nil {
		return count, false, err
	}
	if ok {
		v.logger.Debug().Str("submission_id", id.Hex()).Uint32("confirmations", count).Msg("signatures confirm submission")
	}
	return count, ok, nil
}

// Committed records a confirmation once the consuming transaction has
// committed. Confirmations itself also runs in simulations and rolled-back
// claims, so it records nothing.
func (v *SignatureVerifier) Committed(id common.Hash) {
	v.metrics.ObserveVote(variantSignature, nil)
	v.metrics.SubmissionConfirmed(string(types.KindSubmission))
}
