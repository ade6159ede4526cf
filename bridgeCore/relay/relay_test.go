package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pushchain/push-bridge-core/bridgeCore/api"
	"github.com/pushchain/push-bridge-core/bridgeCore/config"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

func fastRetry(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

// MockSubmitter is a mock implementation of Submitter
type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) SubmitSigned(ctx context.Context, id common.Hash, signature []byte) (common.Address, bool, error) {
	args := m.Called(ctx, id, signature)
	return args.Get(0).(common.Address), args.Bool(1), args.Error(2)
}

func TestRetryConfigFrom(t *testing.T) {
	cfg := RetryConfigFrom(config.RetryConfig{MaxAttempts: 7, InitialBackoffMs: 100, MaxBackoffMs: 2000})
	assert.Equal(t, 7, cfg.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.InitialDelay)
	assert.Equal(t, 2*time.Second, cfg.MaxDelay)

	defaults := RetryConfigFrom(config.RetryConfig{})
	assert.Equal(t, DefaultRetryConfig(), defaults)
}

func TestRetryWithConfig(t *testing.T) {
	tests := []struct {
		name         string
		errs         []error
		wantAttempts int
		wantErr      error
	}{
		{"succeeds first time", []error{nil}, 1, nil},
		{"transient then success", []error{errors.New("database is locked"), nil}, 2, nil},
		{"not ready then success", []error{types.ErrSubmissionNotConfirmed, nil}, 2, nil},
		{"rejected stops", []error{types.ErrOracleBadRole, nil}, 1, types.ErrOracleBadRole},
		{"done stops", []error{types.ErrSubmittedAlready, nil}, 1, types.ErrSubmittedAlready},
		{"exhausted", []error{types.ErrSubmissionNotConfirmed, types.ErrSubmissionNotConfirmed, types.ErrSubmissionNotConfirmed}, 3, types.ErrSubmissionNotConfirmed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := RetryWithConfig(context.Background(), func() error {
				err := tt.errs[attempts]
				attempts++
				return err
			}, fastRetry(3), nil)

			assert.Equal(t, tt.wantAttempts, attempts)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRetryWithConfig_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := RetryWithConfig(ctx, func() error {
		called = true
		return nil
	}, fastRetry(3), nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestRetryWithConfig_ZeroAttemptsRunsOnce(t *testing.T) {
	for _, attempts := range []int{0, -1} {
		called := 0
		err := RetryWithConfig(context.Background(), func() error {
			called++
			return types.ErrSubmissionNotConfirmed
		}, fastRetry(attempts), nil)
		require.ErrorIs(t, err, types.ErrSubmissionNotConfirmed)
		assert.Equal(t, 1, called)
	}
}

func TestRelayer_SubmitSignature(t *testing.T) {
	id := common.HexToHash("0x01")
	sig := []byte{1, 2, 3}
	oracle := common.HexToAddress("0xabc")

	t.Run("retries transient failures", func(t *testing.T) {
		submitter := &MockSubmitter{}
		submitter.On("SubmitSigned", mock.Anything, id, sig).Return(common.Address{}, false, errors.New("connection refused")).Once()
		submitter.On("SubmitSigned", mock.Anything, id, sig).Return(oracle, true, nil).Once()

		res, err := NewRelayer(submitter, fastRetry(3), zerolog.Nop()).SubmitSignature(context.Background(), id, sig)
		require.NoError(t, err)
		assert.Equal(t, oracle, res.Oracle)
		assert.True(t, res.Confirmed)
		assert.Equal(t, types.OutcomeDone, res.Outcome)
		assert.Equal(t, 2, res.Attempts)
		submitter.AssertExpectations(t)
	})

	t.Run("already submitted counts as delivered", func(t *testing.T) {
		submitter := &MockSubmitter{}
		submitter.On("SubmitSigned", mock.Anything, id, sig).
			Return(common.Address{}, false, errorsmod.Wrap(types.ErrSubmittedAlready, "vote exists")).Once()

		res, err := NewRelayer(submitter, fastRetry(3), zerolog.Nop()).SubmitSignature(context.Background(), id, sig)
		require.NoError(t, err)
		assert.Equal(t, types.OutcomeDone, res.Outcome)
		assert.Equal(t, 1, res.Attempts)
	})

	t.Run("empty retry config still sends", func(t *testing.T) {
		submitter := &MockSubmitter{}
		submitter.On("SubmitSigned", mock.Anything, id, sig).Return(common.Address{}, false, errors.New("connection refused")).Once()

		res, err := NewRelayer(submitter, &RetryConfig{}, zerolog.Nop()).SubmitSignature(context.Background(), id, sig)
		require.Error(t, err)
		assert.NotEqual(t, types.OutcomeDone, res.Outcome)
		submitter.AssertNumberOfCalls(t, "SubmitSigned", 1)
	})

	t.Run("rejection is returned", func(t *testing.T) {
		submitter := &MockSubmitter{}
		submitter.On("SubmitSigned", mock.Anything, id, sig).Return(common.Address{}, false, types.ErrSignatureInvalidV).Once()

		res, err := NewRelayer(submitter, fastRetry(3), zerolog.Nop()).SubmitSignature(context.Background(), id, sig)
		require.ErrorIs(t, err, types.ErrSignatureInvalidV)
		assert.Equal(t, types.OutcomeRejected, res.Outcome)
		submitter.AssertNumberOfCalls(t, "SubmitSigned", 1)
	})
}

func TestHTTPSubmitter(t *testing.T) {
	id := common.HexToHash("0x02")
	oracle := common.HexToAddress("0xdef")

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/submissions/"+id.Hex()+"/signatures", func(w http.ResponseWriter, r *http.Request) {
		var req api.SignatureRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch req.Signature {
		case "0x0102":
			json.NewEncoder(w).Encode(api.QueryResponse{Data: api.SignatureResponse{Oracle: oracle, Confirmed: true}})
		case "0x0303":
			w.WriteHeader(http.StatusConflict)
			codespace, code := types.Code(types.ErrSubmittedAlready)
			json.NewEncoder(w).Encode(api.ErrorResponse{Error: "submitted already", Codespace: codespace, Code: code})
		default:
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(api.ErrorResponse{Error: "internal error"})
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	submitter := NewHTTPSubmitter(srv.URL+"/", time.Second)

	got, confirmed, err := submitter.SubmitSigned(context.Background(), id, []byte{1, 2})
	require.NoError(t, err)
	assert.Equal(t, oracle, got)
	assert.True(t, confirmed)

	_, _, err = submitter.SubmitSigned(context.Background(), id, []byte{3, 3})
	require.ErrorIs(t, err, types.ErrSubmittedAlready)
	assert.Equal(t, types.OutcomeDone, types.Classify(err))

	_, _, err = submitter.SubmitSigned(context.Background(), id, []byte{9})
	require.Error(t, err)
	assert.Equal(t, types.OutcomeTransient, types.Classify(err))
}
