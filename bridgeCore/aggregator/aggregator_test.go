package aggregator

import (
	"context"
	"crypto/ecdsa"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushchain/push-bridge-core/bridgeCore/db"
	"github.com/pushchain/push-bridge-core/bridgeCore/keylock"
	"github.com/pushchain/push-bridge-core/bridgeCore/registry"
	"github.com/pushchain/push-bridge-core/bridgeCore/sigutil"
	"github.com/pushchain/push-bridge-core/bridgeCore/store"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

type fixture struct {
	ctx        context.Context
	db         *db.DB
	registry   *registry.Registry
	aggregator *Aggregator
	clock      *ManualClock
	admin      common.Address
	keys       map[string]*ecdsa.PrivateKey
	a, b, c    common.Address
}

// SetupTest registers oracles A (required), B and C with min 2, threshold 10, excess 3.
func SetupTest(t *testing.T) *fixture {
	t.Helper()
	database, err := db.OpenInMemoryDB(true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	f := &fixture{
		ctx:      context.Background(),
		db:       database,
		registry: registry.New(database, nil, zerolog.Nop()),
		clock:    NewManualClock(100),
		admin:    common.HexToAddress("0xad00000000000000000000000000000000000001"),
		keys:     map[string]*ecdsa.PrivateKey{},
	}
	f.aggregator = New(database, keylock.New(16), f.clock, nil, zerolog.Nop())

	for _, name := range []string{"a", "b", "c"} {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		f.keys[name] = key
	}
	f.a = crypto.PubkeyToAddress(f.keys["a"].PublicKey)
	f.b = crypto.PubkeyToAddress(f.keys["b"].PublicKey)
	f.c = crypto.PubkeyToAddress(f.keys["c"].PublicKey)

	require.NoError(t, f.registry.Bootstrap(f.ctx, []common.Address{f.admin}, types.QuorumPolicy{
		MinConfirmations:      2,
		ConfirmationThreshold: 10,
		ExcessConfirmations:   3,
	}))
	require.NoError(t, f.registry.AddOracles(f.ctx, f.admin,
		[]common.Address{f.a, f.b, f.c}, []bool{true, false, false}))
	return f
}

func (f *fixture) sign(t *testing.T, name string, id common.Hash) []byte {
	t.Helper()
	sig, err := sigutil.Sign(id, f.keys[name])
	require.NoError(t, err)
	return sig
}

func TestSubmit_QuorumWithRequiredOracle(t *testing.T) {
	f := SetupTest(t)
	require := require.New(t)
	id := crypto.Keccak256Hash([]byte("transfer-1"))

	confirmed, err := f.aggregator.Submit(f.ctx, f.a, id)
	require.NoError(err)
	require.False(confirmed)

	confirmed, err = f.aggregator.Submit(f.ctx, f.b, id)
	require.NoError(err)
	require.True(confirmed)

	confirmed, err = f.aggregator.Submit(f.ctx, f.c, id)
	require.NoError(err)
	require.True(confirmed)

	count, confirmed, err := f.aggregator.GetSubmissionConfirmations(f.ctx, id)
	require.NoError(err)
	require.Equal(uint32(3), count)
	require.True(confirmed)

	_, err = f.aggregator.Submit(f.ctx, f.a, id)
	require.ErrorIs(err, types.ErrSubmittedAlready)
}

func TestSubmit_WaitsForRequiredOracle(t *testing.T) {
	f := SetupTest(t)
	id := crypto.Keccak256Hash([]byte("transfer-2"))

	for _, oracle := range []common.Address{f.b, f.c} {
		confirmed, err := f.aggregator.Submit(f.ctx, oracle, id)
		require.NoError(t, err)
		require.False(t, confirmed)
	}

	confirmed, err := f.aggregator.Submit(f.ctx, f.a, id)
	require.NoError(t, err)
	require.True(t, confirmed)

	info, err := f.aggregator.GetSubmissionInfo(f.ctx, id)
	require.NoError(t, err)
	require.Equal(t, []common.Address{f.b, f.c, f.a}, info.Voters)
	require.Equal(t, uint64(100), info.ConfirmedAtBlock)
	require.Equal(t, types.KindSubmission, info.Kind)
	require.False(t, info.IsUsed)
}

func TestSubmit_RejectsNonOracles(t *testing.T) {
	f := SetupTest(t)
	id := crypto.Keccak256Hash([]byte("transfer-3"))

	_, err := f.aggregator.Submit(f.ctx, common.HexToAddress("0x1234"), id)
	require.ErrorIs(t, err, types.ErrOracleBadRole)

	d := common.HexToAddress("0xd000000000000000000000000000000000000004")
	require.NoError(t, f.registry.AddOracles(f.ctx, f.admin, []common.Address{d}, []bool{false}))
	require.NoError(t, f.registry.UpdateOracle(f.ctx, f.admin, d, false, false))

	_, err = f.aggregator.Submit(f.ctx, d, id)
	require.ErrorIs(t, err, types.ErrOracleBadRole)

	info, err := f.aggregator.GetSubmissionInfo(f.ctx, id)
	require.NoError(t, err)
	require.Zero(t, info.Confirmations)
	require.Empty(t, info.Voters)
}

func TestSubmit_FloodWindowNeedsExcess(t *testing.T) {
	f := SetupTest(t)
	require := require.New(t)
	require.NoError(f.registry.SetThreshold(f.ctx, f.admin, 1))

	first := crypto.Keccak256Hash([]byte("flood-1"))
	second := crypto.Keccak256Hash([]byte("flood-2"))
	third := crypto.Keccak256Hash([]byte("flood-3"))

	for _, oracle := range []common.Address{f.a, f.b} {
		_, err := f.aggregator.Submit(f.ctx, oracle, first)
		require.NoError(err)
	}
	_, confirmed, err := f.aggregator.GetSubmissionConfirmations(f.ctx, first)
	require.NoError(err)
	require.True(confirmed)

	// same window: the threshold is used up, 2 < excess 3
	for _, oracle := range []common.Address{f.a, f.b} {
		confirmed, err = f.aggregator.Submit(f.ctx, oracle, second)
		require.NoError(err)
		require.False(confirmed)
	}
	confirmed, err = f.aggregator.Submit(f.ctx, f.c, second)
	require.NoError(err)
	require.True(confirmed)

	// a new window resets the counter
	f.clock.Advance()
	_, err = f.aggregator.Submit(f.ctx, f.a, third)
	require.NoError(err)
	confirmed, err = f.aggregator.Submit(f.ctx, f.b, third)
	require.NoError(err)
	require.True(confirmed)

	params, err := f.registry.GetParams(f.ctx)
	require.NoError(err)
	require.Equal(uint64(101), params.CurrentBlock)
	require.Equal(uint32(1), params.SubmissionsInBlock)
}

func TestSubmitMany_IsAtomic(t *testing.T) {
	f := SetupTest(t)
	fresh := crypto.Keccak256Hash([]byte("batch-1"))
	voted := crypto.Keccak256Hash([]byte("batch-2"))

	_, err := f.aggregator.Submit(f.ctx, f.a, voted)
	require.NoError(t, err)

	_, err = f.aggregator.SubmitMany(f.ctx, f.a, []common.Hash{fresh, voted})
	require.ErrorIs(t, err, types.ErrSubmittedAlready)

	count, _, err := f.aggregator.GetSubmissionConfirmations(f.ctx, fresh)
	require.NoError(t, err)
	require.Zero(t, count)

	confirmed, err := f.aggregator.SubmitMany(f.ctx, f.b, []common.Hash{fresh, voted})
	require.NoError(t, err)
	require.Equal(t, []bool{false, true}, confirmed)
}

func TestSubmitSigned(t *testing.T) {
	f := SetupTest(t)
	id := crypto.Keccak256Hash([]byte("relayed"))

	signer, confirmed, err := f.aggregator.SubmitSigned(f.ctx, id, f.sign(t, "a", id))
	require.NoError(t, err)
	require.Equal(t, f.a, signer)
	require.False(t, confirmed)

	_, confirmed, err = f.aggregator.SubmitSigned(f.ctx, id, f.sign(t, "b", id))
	require.NoError(t, err)
	require.True(t, confirmed)

	_, _, err = f.aggregator.SubmitSigned(f.ctx, id, f.sign(t, "b", id))
	require.ErrorIs(t, err, types.ErrSubmittedAlready)

	stranger, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, err := sigutil.Sign(id, stranger)
	require.NoError(t, err)
	_, _, err = f.aggregator.SubmitSigned(f.ctx, id, sig)
	require.ErrorIs(t, err, types.ErrOracleBadRole)

	_, _, err = f.aggregator.SubmitSigned(f.ctx, id, sig[:64])
	require.ErrorIs(t, err, types.ErrSignatureInvalidLength)
}

func TestSubmit_ConcurrentDuplicateVotes(t *testing.T) {
	f := SetupTest(t)
	id := crypto.Keccak256Hash([]byte("race"))

	const racers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		already   int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.aggregator.Submit(f.ctx, f.a, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case types.Classify(err) == types.OutcomeDone:
				already++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, successes)
	require.Equal(t, racers-1, already)
}

func TestSubmit_ConcurrentDistinctOracles(t *testing.T) {
	f := SetupTest(t)
	id := crypto.Keccak256Hash([]byte("parallel"))

	var wg sync.WaitGroup
	for _, oracle := range []common.Address{f.a, f.b, f.c} {
		wg.Add(1)
		go func(o common.Address) {
			defer wg.Done()
			_, err := f.aggregator.Submit(f.ctx, o, id)
			assert.NoError(t, err)
		}(oracle)
	}
	wg.Wait()

	count, confirmed, err := f.aggregator.GetSubmissionConfirmations(f.ctx, id)
	require.NoError(t, err)
	require.Equal(t, uint32(3), count)
	require.True(t, confirmed)
}

func TestAssetConfirmation(t *testing.T) {
	f := SetupTest(t)
	require := require.New(t)
	meta := AssetMetadata{
		Token:    common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7").Bytes(),
		ChainID:  1,
		Name:     "Tether USD",
		Symbol:   "USDT",
		Decimals: 6,
	}
	wrapped := common.HexToAddress("0x5555").Bytes()

	deployID, confirmed, err := f.aggregator.ConfirmNewAsset(f.ctx, f.a, meta)
	require.NoError(err)
	require.Equal(meta.DeployID(), deployID)
	require.False(confirmed)

	_, err = f.aggregator.DeployAsset(f.ctx, f.admin, deployID, wrapped)
	require.ErrorIs(err, types.ErrAssetNotConfirmed)

	_, confirmed, err = f.aggregator.ConfirmNewAssetSigned(f.ctx, meta, f.sign(t, "b", deployID))
	require.NoError(err)
	require.True(confirmed)

	_, err = f.aggregator.DeployAsset(f.ctx, f.a, deployID, wrapped)
	require.ErrorIs(err, types.ErrAdminBadRole)

	debridgeID, err := f.aggregator.DeployAsset(f.ctx, f.admin, deployID, wrapped)
	require.NoError(err)
	require.Equal(meta.DebridgeID(), debridgeID)

	_, err = f.aggregator.DeployAsset(f.ctx, f.admin, deployID, wrapped)
	require.ErrorIs(err, types.ErrAssetAlreadyExist)

	_, _, err = f.aggregator.ConfirmNewAsset(f.ctx, f.c, meta)
	require.ErrorIs(err, types.ErrAssetAlreadyExist)

	asset, err := f.aggregator.GetAsset(f.ctx, debridgeID)
	require.NoError(err)
	require.Equal(wrapped, asset.WrappedToken)
	require.Equal(meta.Token, asset.NativeToken)

	info, err := f.aggregator.GetDeployInfo(f.ctx, deployID)
	require.NoError(err)
	require.Equal("USDT", info.Symbol)
	require.True(info.IsConfirmed)
	require.Equal(uint32(2), info.Confirmations)
}

func TestSignatureVerifier(t *testing.T) {
	f := SetupTest(t)
	verifier := NewSignatureVerifier(f.clock, nil, zerolog.Nop())
	id := crypto.Keccak256Hash([]byte("signed-claim"))

	check := func(sigs ...[]byte) (uint32, bool, error) {
		var (
			count     uint32
			confirmed bool
			checkErr  error
		)
		err := f.db.Transact(f.ctx, func(repo *store.Repo) error {
			count, confirmed, checkErr = verifier.Confirmations(repo, id, concat(sigs...))
			return nil
		})
		require.NoError(t, err)
		return count, confirmed, checkErr
	}

	t.Run("quorum with required", func(t *testing.T) {
		count, confirmed, err := check(f.sign(t, "a", id), f.sign(t, "b", id))
		require.NoError(t, err)
		require.Equal(t, uint32(2), count)
		require.True(t, confirmed)
	})

	t.Run("missing required", func(t *testing.T) {
		_, _, err := check(f.sign(t, "b", id), f.sign(t, "c", id))
		require.ErrorIs(t, err, types.ErrNotConfirmedByRequiredOracles)
	})

	t.Run("duplicate signer", func(t *testing.T) {
		_, _, err := check(f.sign(t, "a", id), f.sign(t, "a", id))
		require.ErrorIs(t, err, types.ErrDuplicateSignatures)
	})

	t.Run("stranger ignored", func(t *testing.T) {
		stranger, err := crypto.GenerateKey()
		require.NoError(t, err)
		sig, err := sigutil.Sign(id, stranger)
		require.NoError(t, err)

		count, confirmed, err := check(f.sign(t, "a", id), sig)
		require.NoError(t, err)
		require.Equal(t, uint32(1), count)
		require.False(t, confirmed)
	})
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
