package relay

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// Submitter accepts a vote signed by an oracle. The aggregator implements
// it in process and HTTPSubmitter over the network.
type Submitter interface {
	SubmitSigned(ctx context.Context, id common.Hash, signature []byte) (common.Address, bool, error)
}

// Result describes a relayed vote.
type Result struct {
	Oracle    common.Address
	Confirmed bool
	Outcome   types.Outcome
	Attempts  int
}

type Relayer struct {
	submitter Submitter
	retry     *RetryConfig
	logger    zerolog.Logger
}

func NewRelayer(submitter Submitter, retry *RetryConfig, logger zerolog.Logger) *Relayer {
	if retry == nil {
		retry = DefaultRetryConfig()
	}
	return &Relayer{
		submitter: submitter,
		retry:     retry,
		logger:    logger.With().Str("component", "relayer").Logger(),
	}
}

// SubmitSignature relays one signed vote, retrying while the failure may be
// temporary. A vote the aggregator already holds counts as delivered and
// returns OutcomeDone with a nil error.
func (r *Relayer) SubmitSignature(ctx context.Context, id common.Hash, signature []byte) (Result, error) {
	var res Result
	err := RetryWithConfig(ctx, func() error {
		res.Attempts++
		oracle, confirmed, err := r.submitter.SubmitSigned(ctx, id, signature)
		if err != nil {
			return err
		}
		res.Oracle, res.Confirmed = oracle, confirmed
		return nil
	}, r.retry, func(attempt int, err error) {
		r.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Str("submission_id", id.Hex()).
			Msg("vote not delivered, retrying")
	})

	res.Outcome = types.Classify(err)
	if res.Outcome == types.OutcomeDone {
		if err != nil {
			r.logger.Info().Err(err).Str("submission_id", id.Hex()).Msg("vote already delivered")
		}
		return res, nil
	}
	return res, err
}
