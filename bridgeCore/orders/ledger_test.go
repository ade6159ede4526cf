package orders

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"sync"
	"testing"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pushchain/push-bridge-core/bridgeCore/aggregator"
	"github.com/pushchain/push-bridge-core/bridgeCore/db"
	"github.com/pushchain/push-bridge-core/bridgeCore/gate"
	"github.com/pushchain/push-bridge-core/bridgeCore/keylock"
	"github.com/pushchain/push-bridge-core/bridgeCore/registry"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

const (
	localChain  = uint64(1)
	takeChain   = uint64(56)
	solanaChain = uint64(7565164)
)

var (
	maker       = common.HexToAddress("0x1000000000000000000000000000000000000001").Bytes()
	taker       = common.HexToAddress("0x2000000000000000000000000000000000000002").Bytes()
	affiliateTo = common.HexToAddress("0x3000000000000000000000000000000000000003").Bytes()
	giveToken   = common.HexToAddress("0x4000000000000000000000000000000000000004").Bytes()
	takeToken   = common.HexToAddress("0x5000000000000000000000000000000000000005").Bytes()
	callProxy   = common.HexToAddress("0x8a0C79F5532f3b2a16AD1E4282A5DAF81928a824").Bytes()
	executor    = common.HexToAddress("0x43dE2d77BF8027e25dBD179B491e8d64f38398aA").Bytes()
	counterpart = common.HexToAddress("0xE7351Fd770A37282b91D153Ee690B63579D6dd7f").Bytes()
)

// MockEscrow is a mock implementation of Escrow
type MockEscrow struct {
	mock.Mock
}

func (m *MockEscrow) Lock(ctx context.Context, token, from []byte, amount math.Int) error {
	return m.Called(ctx, token, from, amount).Error(0)
}

func (m *MockEscrow) Release(ctx context.Context, token, to []byte, amount math.Int) error {
	return m.Called(ctx, token, to, amount).Error(0)
}

type fixture struct {
	ctx        context.Context
	db         *db.DB
	locks      *keylock.Locker
	aggregator *aggregator.Aggregator
	gate       *gate.Gate
	book       *Book
	ledger     *Ledger
	settings   Settings
	oracles    []common.Address
}

func testSettings() Settings {
	return Settings{
		LocalChainID: localChain,
		Chains: types.ChainRegistry{
			localChain:  types.FamilyEVM,
			takeChain:   types.FamilyEVM,
			solanaChain: types.FamilySolana,
		},
		Fees:            types.FeePolicy{FixFee: math.NewInt(10), PercentFeeBps: 50},
		MinPatchAmount:  math.NewInt(5),
		CallProxy:       callProxy,
		ExecutorProgram: executor,
		Counterparts:    map[uint64][]byte{takeChain: counterpart},
	}
}

// SetupTest builds a ledger over a count-based gate with oracles A (required),
// B and C, min 2, and funds the maker with 10000 of giveToken.
func SetupTest(t *testing.T) *fixture {
	t.Helper()
	database, err := db.OpenInMemoryDB(true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	f := &fixture{
		ctx:      context.Background(),
		db:       database,
		locks:    keylock.New(16),
		settings: testSettings(),
	}
	f.aggregator = aggregator.New(database, f.locks, aggregator.NewManualClock(1), nil, zerolog.Nop())
	f.gate = gate.New(database, f.locks, f.aggregator, nil, zerolog.Nop())
	f.book = NewBook(database)
	f.ledger = New(database, f.locks, f.gate, f.book, f.settings, nil, zerolog.Nop())

	admin := common.HexToAddress("0xad00000000000000000000000000000000000001")
	keys := make([]*ecdsa.PrivateKey, 3)
	for i := range keys {
		keys[i], err = crypto.GenerateKey()
		require.NoError(t, err)
		f.oracles = append(f.oracles, crypto.PubkeyToAddress(keys[i].PublicKey))
	}
	reg := registry.New(database, nil, zerolog.Nop())
	require.NoError(t, reg.Bootstrap(f.ctx, []common.Address{admin}, types.QuorumPolicy{
		MinConfirmations:      2,
		ConfirmationThreshold: 10,
		ExcessConfirmations:   3,
	}))
	require.NoError(t, reg.AddOracles(f.ctx, admin, f.oracles, []bool{true, false, false}))

	require.NoError(t, f.book.Deposit(f.ctx, giveToken, maker, math.NewInt(10000)))
	return f
}

func creation() OrderCreation {
	return OrderCreation{
		GiveToken:                giveToken,
		GiveAmount:               math.NewInt(1000),
		TakeChainID:              takeChain,
		TakeToken:                takeToken,
		TakeAmount:               math.NewInt(990),
		ReceiverDst:              common.HexToAddress("0x6000000000000000000000000000000000000006").Bytes(),
		GivePatchAuthoritySrc:    maker,
		OrderAuthorityAddressDst: common.HexToAddress("0x7000000000000000000000000000000000000007").Bytes(),
	}
}

func (f *fixture) create(t *testing.T, affiliate *AffiliateFee) common.Hash {
	t.Helper()
	id, err := f.ledger.CreateOrder(f.ctx, maker, creation(), affiliate)
	require.NoError(t, err)
	return id
}

// claimMessage builds a well-formed claim message for orderID.
func claimMessage(t *testing.T, orderID common.Hash, instruction Instruction, beneficiary []byte, nonce uint64) ClaimMessage {
	t.Helper()
	payload, err := EncodeClaimPayload(instruction, orderID, beneficiary)
	require.NoError(t, err)
	id := types.ClaimSubmissionID(takeChain, localChain, counterpart, payload, nonce)
	return ClaimMessage{
		ProgramID:      executor,
		Payload:        payload,
		SourceChain:    takeChain,
		NativeSender:   counterpart,
		Nonce:          nonce,
		SubmissionID:   id,
		SubmissionAuth: types.SubmissionAuthority(id),
	}
}

func (f *fixture) confirm(t *testing.T, id common.Hash) {
	t.Helper()
	for _, o := range f.oracles[:2] {
		_, err := f.aggregator.Submit(f.ctx, o, id)
		require.NoError(t, err)
	}
}

func (f *fixture) balance(t *testing.T, account []byte) string {
	t.Helper()
	b, err := f.book.Balance(f.ctx, giveToken, account)
	require.NoError(t, err)
	return b.String()
}

func (f *fixture) status(t *testing.T, id common.Hash) types.OrderStatus {
	t.Helper()
	info, err := f.ledger.GetOrder(f.ctx, id)
	require.NoError(t, err)
	return info.Status
}

func TestCreateOrder_DeductsFees(t *testing.T) {
	f := SetupTest(t)
	id := f.create(t, nil)

	info, err := f.ledger.GetOrder(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, types.OrderCreated, info.Status)
	assert.Equal(t, "985", info.GiveAmount.String())
	assert.Equal(t, "10", info.FixFee.String())
	assert.Equal(t, "5", info.PercentFee.String())
	assert.Equal(t, "0", info.AffiliateFee.String())
	assert.Equal(t, "1000", info.Order.Give.Amount.String())
	assert.Equal(t, localChain, info.Order.Give.ChainID)
	assert.Equal(t, maker, info.Order.MakerSrc)
	assert.Equal(t, uint64(0), info.Order.MakerOrderNonce)

	expected, err := types.OrderID(info.Order)
	require.NoError(t, err)
	assert.Equal(t, id, expected)

	assert.Equal(t, "9000", f.balance(t, maker))
	escrowed, err := f.book.Escrowed(f.ctx, giveToken)
	require.NoError(t, err)
	assert.Equal(t, "1000", escrowed.String())

	nonce, err := f.ledger.GetMakerNonce(f.ctx, maker)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)

	second := f.create(t, nil)
	assert.NotEqual(t, id, second)
}

func TestCreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *OrderCreation)
		err    error
	}{
		{"receiver size", func(c *OrderCreation) { c.ReceiverDst = make([]byte, 32) }, types.ErrBadReceiverDstSize},
		{"order authority size", func(c *OrderCreation) { c.OrderAuthorityAddressDst = []byte{1, 2, 3} }, types.ErrBadOrderAuthorityDstSize},
		{"allowed taker size", func(c *OrderCreation) { c.AllowedTakerDst = []byte{1} }, types.ErrBadAllowedTakerDst},
		{"cancel beneficiary size", func(c *OrderCreation) { c.AllowedCancelBeneficiarySrc = make([]byte, 32) }, types.ErrBadAllowedCancelBeneficiarySrc},
		{"external call disabled", func(c *OrderCreation) { c.ExternalCall = []byte{0xca, 0x11} }, types.ErrExternalCallDisables},
		{"unknown take chain", func(c *OrderCreation) { c.TakeChainID = 999 }, types.ErrWrongChain},
		{"take chain is local", func(c *OrderCreation) { c.TakeChainID = localChain }, types.ErrWrongChain},
		{"zero give", func(c *OrderCreation) { c.GiveAmount = math.ZeroInt() }, types.ErrWrongArgument},
		{"give below fees", func(c *OrderCreation) { c.GiveAmount = math.NewInt(10) }, types.ErrWrongArgument},
		{"patch authority size", func(c *OrderCreation) { c.GivePatchAuthoritySrc = nil }, types.ErrWrongArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := SetupTest(t)
			c := creation()
			tt.mutate(&c)
			_, err := f.ledger.CreateOrder(f.ctx, maker, c, nil)
			require.ErrorIs(t, err, tt.err)
			assert.Equal(t, "10000", f.balance(t, maker))
		})
	}
}

func TestCreateOrder_SolanaDestination(t *testing.T) {
	f := SetupTest(t)
	c := creation()
	c.TakeChainID = solanaChain
	c.TakeToken = make([]byte, 32)
	c.ReceiverDst = make([]byte, 32)
	c.OrderAuthorityAddressDst = make([]byte, 32)
	c.AllowedTakerDst = make([]byte, 32)

	_, err := f.ledger.CreateOrder(f.ctx, maker, c, nil)
	require.NoError(t, err)

	c.ReceiverDst = make([]byte, 20)
	_, err = f.ledger.CreateOrder(f.ctx, maker, c, nil)
	require.ErrorIs(t, err, types.ErrBadReceiverDstSize)
}

func TestCreateOrder_InsufficientFundsRollsBack(t *testing.T) {
	f := SetupTest(t)
	poor := common.HexToAddress("0x9000000000000000000000000000000000000009").Bytes()
	c := creation()
	c.GivePatchAuthoritySrc = poor

	_, err := f.ledger.CreateOrder(f.ctx, poor, c, nil)
	require.ErrorIs(t, err, types.ErrWrongArgument)

	nonce, err := f.ledger.GetMakerNonce(f.ctx, poor)
	require.NoError(t, err)
	require.Equal(t, uint64(0), nonce)
}

func TestCreateSaltedOrder(t *testing.T) {
	f := SetupTest(t)

	id, err := f.ledger.CreateSaltedOrder(f.ctx, maker, creation(), 77, nil)
	require.NoError(t, err)
	info, err := f.ledger.GetOrder(f.ctx, id)
	require.NoError(t, err)
	require.Equal(t, uint64(77), info.Order.MakerOrderNonce)

	_, err = f.ledger.CreateSaltedOrder(f.ctx, maker, creation(), 77, nil)
	require.ErrorIs(t, err, types.ErrOrderAlreadyExist)
	require.Equal(t, "9000", f.balance(t, maker))

	nonce, err := f.ledger.GetMakerNonce(f.ctx, maker)
	require.NoError(t, err)
	require.Equal(t, uint64(0), nonce)
}

func TestPatchOrderGive(t *testing.T) {
	f := SetupTest(t)
	id := f.create(t, nil)

	err := f.ledger.PatchOrderGive(f.ctx, maker, id, math.NewInt(3))
	require.ErrorIs(t, err, types.ErrWrongPatchAmount)

	err = f.ledger.PatchOrderGive(f.ctx, taker, id, math.NewInt(200))
	require.ErrorIs(t, err, types.ErrPatchAuthorityBadRole)

	err = f.ledger.PatchOrderGive(f.ctx, maker, common.HexToHash("0xdead"), math.NewInt(200))
	require.ErrorIs(t, err, types.ErrNotExist)

	require.NoError(t, f.ledger.PatchOrderGive(f.ctx, maker, id, math.NewInt(200)))
	info, err := f.ledger.GetOrder(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "1184", info.GiveAmount.String())
	assert.Equal(t, "6", info.PercentFee.String())
	assert.Equal(t, "8800", f.balance(t, maker))

	msg := claimMessage(t, id, InstructionUnlock, taker, 1)
	f.confirm(t, msg.SubmissionID)
	require.NoError(t, f.ledger.ClaimUnlock(f.ctx, callProxy, id, msg))

	err = f.ledger.PatchOrderGive(f.ctx, maker, id, math.NewInt(200))
	require.ErrorIs(t, err, types.ErrOrderAlreadyProcessed)
}

func TestPatchOrderGive_LookupBeforeAmount(t *testing.T) {
	f := SetupTest(t)
	id := f.create(t, nil)

	err := f.ledger.PatchOrderGive(f.ctx, maker, common.HexToHash("0xdead"), math.NewInt(1))
	require.ErrorIs(t, err, types.ErrNotExist)

	err = f.ledger.PatchOrderGive(f.ctx, taker, id, math.ZeroInt())
	require.ErrorIs(t, err, types.ErrPatchAuthorityBadRole)

	err = f.ledger.PatchOrderGive(f.ctx, maker, id, math.ZeroInt())
	require.ErrorIs(t, err, types.ErrWrongPatchAmount)
	assert.Equal(t, "9000", f.balance(t, maker))
}

func TestClaimUnlock(t *testing.T) {
	f := SetupTest(t)
	id := f.create(t, nil)
	msg := claimMessage(t, id, InstructionUnlock, taker, 1)

	err := f.ledger.ClaimUnlock(f.ctx, callProxy, id, msg)
	require.ErrorIs(t, err, types.ErrSubmissionNotConfirmed)
	require.Equal(t, types.OrderCreated, f.status(t, id))

	f.confirm(t, msg.SubmissionID)

	err = f.ledger.ClaimUnlock(f.ctx, taker, id, msg)
	require.ErrorIs(t, err, types.ErrCallProxyBadRole)

	err = f.ledger.ClaimUnlock(f.ctx, callProxy, common.HexToHash("0xbeef"), msg)
	require.ErrorIs(t, err, types.ErrNotExist)

	require.NoError(t, f.ledger.ClaimUnlock(f.ctx, callProxy, id, msg))
	info, err := f.ledger.GetOrder(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, types.OrderClaimedUnlock, info.Status)
	assert.Equal(t, msg.SubmissionID, info.ClaimedBy)
	assert.Equal(t, "985", f.balance(t, taker))

	used, err := f.gate.IsSubmissionUsed(f.ctx, msg.SubmissionID)
	require.NoError(t, err)
	assert.True(t, used)

	again := claimMessage(t, id, InstructionUnlock, taker, 2)
	f.confirm(t, again.SubmissionID)
	err = f.ledger.ClaimUnlock(f.ctx, callProxy, id, again)
	require.ErrorIs(t, err, types.ErrOrderAlreadyProcessed)

	cancel := claimMessage(t, id, InstructionCancel, maker, 3)
	f.confirm(t, cancel.SubmissionID)
	err = f.ledger.ClaimOrderCancel(f.ctx, callProxy, id, cancel)
	require.ErrorIs(t, err, types.ErrOrderAlreadyProcessed)

	assert.Equal(t, "985", f.balance(t, taker))
	escrowed, err := f.book.Escrowed(f.ctx, giveToken)
	require.NoError(t, err)
	assert.Equal(t, "15", escrowed.String())
}

func TestClaimUnlock_WrongProgramIDLeavesOrderCreated(t *testing.T) {
	f := SetupTest(t)
	id := f.create(t, nil)
	msg := claimMessage(t, id, InstructionUnlock, taker, 1)
	f.confirm(t, msg.SubmissionID)

	msg.ProgramID = common.HexToAddress("0xbad").Bytes()
	err := f.ledger.ClaimUnlock(f.ctx, callProxy, id, msg)
	require.ErrorIs(t, err, types.ErrWrongClaimParentProgramID)
	require.Equal(t, types.CategoryClaimParent, types.CategoryOf(err))

	require.Equal(t, types.OrderCreated, f.status(t, id))
	used, err := f.gate.IsSubmissionUsed(f.ctx, msg.SubmissionID)
	require.NoError(t, err)
	require.False(t, used)
}

func TestClaim_ParentValidation(t *testing.T) {
	f := SetupTest(t)
	id := f.create(t, nil)
	other := f.create(t, nil)

	tests := []struct {
		name string
		msg  func() ClaimMessage
		err  error
	}{
		{"instruction", func() ClaimMessage {
			return claimMessage(t, id, InstructionCancel, taker, 1)
		}, types.ErrWrongClaimParentInstruction},
		{"short payload", func() ClaimMessage {
			m := claimMessage(t, id, InstructionUnlock, taker, 1)
			m.Payload = []byte{1, 2}
			return m
		}, types.ErrWrongClaimParentInstruction},
		{"source chain", func() ClaimMessage {
			m := claimMessage(t, id, InstructionUnlock, taker, 1)
			m.SourceChain = solanaChain
			return m
		}, types.ErrWrongClaimParentSourceChain},
		{"native sender", func() ClaimMessage {
			m := claimMessage(t, id, InstructionUnlock, taker, 1)
			m.NativeSender = taker
			return m
		}, types.ErrWrongClaimParentNativeSender},
		{"submission", func() ClaimMessage {
			m := claimMessage(t, id, InstructionUnlock, taker, 1)
			m.Nonce = 2
			return m
		}, types.ErrWrongClaimParentSubmission},
		{"submission auth", func() ClaimMessage {
			m := claimMessage(t, id, InstructionUnlock, taker, 1)
			m.SubmissionAuth = make([]byte, 32)
			return m
		}, types.ErrWrongClaimParentSubmissionAuth},
		{"payload for another order", func() ClaimMessage {
			return claimMessage(t, other, InstructionUnlock, taker, 1)
		}, types.ErrWrongClaimParentAccounts},
		{"beneficiary size", func() ClaimMessage {
			return claimMessage(t, id, InstructionUnlock, []byte{1, 2, 3}, 1)
		}, types.ErrWrongClaimParentAccounts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.ledger.ClaimUnlock(f.ctx, callProxy, id, tt.msg())
			require.ErrorIs(t, err, tt.err)
			require.Equal(t, types.OutcomeRejected, types.Classify(err))
		})
	}
	require.Equal(t, types.OrderCreated, f.status(t, id))
}

func TestClaimOrderCancel(t *testing.T) {
	f := SetupTest(t)
	id := f.create(t, &AffiliateFee{Beneficiary: affiliateTo, Amount: math.NewInt(100)})

	wrong := claimMessage(t, id, InstructionCancel, taker, 1)
	f.confirm(t, wrong.SubmissionID)
	err := f.ledger.ClaimOrderCancel(f.ctx, callProxy, id, wrong)
	require.ErrorIs(t, err, types.ErrWrongClaimParentAccounts)

	msg := claimMessage(t, id, InstructionCancel, maker, 2)
	f.confirm(t, msg.SubmissionID)
	require.NoError(t, f.ledger.ClaimOrderCancel(f.ctx, callProxy, id, msg))
	require.Equal(t, types.OrderClaimedCancel, f.status(t, id))

	// 886 give + 4 percent + 100 affiliate come back; the fixed fee stays.
	assert.Equal(t, "9990", f.balance(t, maker))

	_, err = f.ledger.WithdrawAffiliateFee(f.ctx, affiliateTo, id)
	require.ErrorIs(t, err, types.ErrAffiliateFeeNotReadyToPay)
}

func TestClaimOrderCancel_AllowedBeneficiaryAndFixRefund(t *testing.T) {
	f := SetupTest(t)
	settings := testSettings()
	settings.RefundFixFeeOnCancel = true
	f.ledger = New(f.db, f.locks, f.gate, f.book, settings, nil, zerolog.Nop())

	c := creation()
	c.AllowedCancelBeneficiarySrc = taker
	id, err := f.ledger.CreateOrder(f.ctx, maker, c, nil)
	require.NoError(t, err)

	toMaker := claimMessage(t, id, InstructionCancel, maker, 1)
	f.confirm(t, toMaker.SubmissionID)
	err = f.ledger.ClaimOrderCancel(f.ctx, callProxy, id, toMaker)
	require.ErrorIs(t, err, types.ErrWrongClaimParentAccounts)

	msg := claimMessage(t, id, InstructionCancel, taker, 2)
	f.confirm(t, msg.SubmissionID)
	require.NoError(t, f.ledger.ClaimOrderCancel(f.ctx, callProxy, id, msg))
	assert.Equal(t, "1000", f.balance(t, taker))
}

func TestWithdrawAffiliateFee(t *testing.T) {
	f := SetupTest(t)
	id := f.create(t, &AffiliateFee{Beneficiary: affiliateTo, Amount: math.NewInt(100)})

	info, err := f.ledger.GetOrder(f.ctx, id)
	require.NoError(t, err)
	require.Equal(t, "886", info.GiveAmount.String())
	require.Equal(t, "4", info.PercentFee.String())
	require.Equal(t, affiliateTo, info.AffiliateTo)

	_, err = f.ledger.WithdrawAffiliateFee(f.ctx, affiliateTo, id)
	require.ErrorIs(t, err, types.ErrAffiliateFeeNotReadyToPay)
	require.Equal(t, types.OutcomeNotReady, types.Classify(err))

	msg := claimMessage(t, id, InstructionUnlock, taker, 1)
	f.confirm(t, msg.SubmissionID)
	require.NoError(t, f.ledger.ClaimUnlock(f.ctx, callProxy, id, msg))

	_, err = f.ledger.WithdrawAffiliateFee(f.ctx, taker, id)
	require.ErrorIs(t, err, types.ErrAffiliateFeeNotReadyToPay)

	fee, err := f.ledger.WithdrawAffiliateFee(f.ctx, affiliateTo, id)
	require.NoError(t, err)
	require.Equal(t, "100", fee.String())
	require.Equal(t, "100", f.balance(t, affiliateTo))

	_, err = f.ledger.WithdrawAffiliateFee(f.ctx, affiliateTo, id)
	require.ErrorIs(t, err, types.ErrAffiliateFeeNotReadyToPay)
	require.Equal(t, "100", f.balance(t, affiliateTo))
}

func TestClaimUnlock_ConcurrentClaims(t *testing.T) {
	f := SetupTest(t)
	id := f.create(t, nil)
	msg := claimMessage(t, id, InstructionUnlock, taker, 1)
	f.confirm(t, msg.SubmissionID)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.ledger.ClaimUnlock(f.ctx, callProxy, id, msg)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, types.ErrOrderAlreadyProcessed) || errors.Is(err, types.ErrSubmissionUsed), err.Error())
		}()
	}
	wg.Wait()

	require.Equal(t, 1, successes)
	require.Equal(t, "985", f.balance(t, taker))
}

func amountOf(n int64) any {
	return mock.MatchedBy(func(a math.Int) bool { return a.Equal(math.NewInt(n)) })
}

func TestClaimUnlock_EscrowFailureRollsBack(t *testing.T) {
	f := SetupTest(t)
	escrow := &MockEscrow{}
	f.ledger = New(f.db, f.locks, f.gate, escrow, f.settings, nil, zerolog.Nop())

	escrow.On("Lock", mock.Anything, giveToken, maker, amountOf(1000)).Return(nil).Once()
	id := f.create(t, nil)

	msg := claimMessage(t, id, InstructionUnlock, taker, 1)
	f.confirm(t, msg.SubmissionID)

	escrow.On("Release", mock.Anything, giveToken, taker, amountOf(985)).Return(errors.New("token ledger unavailable")).Once()
	err := f.ledger.ClaimUnlock(f.ctx, callProxy, id, msg)
	require.EqualError(t, err, "token ledger unavailable")
	require.Equal(t, types.OutcomeTransient, types.Classify(err))

	require.Equal(t, types.OrderCreated, f.status(t, id))
	used, err := f.gate.IsSubmissionUsed(f.ctx, msg.SubmissionID)
	require.NoError(t, err)
	require.False(t, used)

	escrow.On("Release", mock.Anything, giveToken, taker, amountOf(985)).Return(nil).Once()
	require.NoError(t, f.ledger.ClaimUnlock(f.ctx, callProxy, id, msg))
	escrow.AssertExpectations(t)
}

func TestClaimPayload(t *testing.T) {
	id := crypto.Keccak256Hash([]byte("order"))
	payload, err := EncodeClaimPayload(InstructionUnlock, id, taker)
	require.NoError(t, err)

	instruction, orderID, beneficiary, err := DecodeClaimPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, InstructionUnlock, instruction)
	assert.Equal(t, id, orderID)
	assert.Equal(t, taker, beneficiary)

	_, _, _, err = DecodeClaimPayload(payload[:4])
	require.ErrorIs(t, err, types.ErrWrongClaimParentAccounts)
	assert.NotEqual(t, InstructionUnlock, InstructionCancel)
}
