// Package orders keeps the give side of cross-chain swap orders: creation
// with fee deduction and escrow, patching, settlement through confirmed
// claim messages, and affiliate fee withdrawal.
//
// Orders move Created -> ClaimedUnlock or Created -> ClaimedCancel. Both
// are terminal; a claim consumes its submission through the gate in the
// same transaction that releases escrow and writes the new status.
package orders

import (
	"bytes"
	"context"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"

	"github.com/pushchain/push-bridge-core/bridgeCore/db"
	"github.com/pushchain/push-bridge-core/bridgeCore/gate"
	"github.com/pushchain/push-bridge-core/bridgeCore/keylock"
	"github.com/pushchain/push-bridge-core/bridgeCore/metrics"
	"github.com/pushchain/push-bridge-core/bridgeCore/store"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// OrderCreation is what a maker submits. The give chain is always the local chain.
type OrderCreation struct {
	GiveToken                   []byte
	GiveAmount                  math.Int
	TakeChainID                 uint64
	TakeToken                   []byte
	TakeAmount                  math.Int
	ReceiverDst                 []byte
	GivePatchAuthoritySrc       []byte
	OrderAuthorityAddressDst    []byte
	AllowedTakerDst             []byte // empty: anyone may take
	AllowedCancelBeneficiarySrc []byte // empty: refunds go to the maker
	ExternalCall                []byte
}

// AffiliateFee is an optional commission carved out of the give amount.
type AffiliateFee struct {
	Beneficiary []byte
	Amount      math.Int
}

// ClaimMessage is the cross-chain message delivered by the call proxy to
// settle an order, together with the provenance of its parent call.
type ClaimMessage struct {
	ProgramID      []byte
	Payload        []byte // see EncodeClaimPayload
	SourceChain    uint64
	NativeSender   []byte
	Nonce          uint64
	SubmissionID   common.Hash
	SubmissionAuth []byte
	Signatures     []byte // used by the signature quorum strategy only
}

// Ledger is the order state machine.
type Ledger struct {
	db       *db.DB
	locks    *keylock.Locker
	gate     *gate.Gate
	escrow   Escrow
	settings Settings
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// New creates a Ledger. locks must be the locker the gate uses.
func New(database *db.DB, locks *keylock.Locker, g *gate.Gate, escrow Escrow, settings Settings, m *metrics.Metrics, logger zerolog.Logger) *Ledger {
	return &Ledger{
		db:       database,
		locks:    locks,
		gate:     g,
		escrow:   escrow,
		settings: settings,
		metrics:  m,
		logger:   logger.With().Str("component", "orders").Logger(),
	}
}

func makerKey(maker []byte) common.Hash {
	return crypto.Keccak256Hash([]byte("maker"), maker)
}

// CreateOrder creates an order under the maker's next nonce and escrows the
// full give amount.
func (l *Ledger) CreateOrder(ctx context.Context, maker []byte, c OrderCreation, affiliate *AffiliateFee) (common.Hash, error) {
	if err := l.validateCreation(maker, c, affiliate); err != nil {
		return common.Hash{}, l.rejected("create", err)
	}
	unlock := l.locks.Lock(makerKey(maker))
	defer unlock()

	var id common.Hash
	err := l.db.Transact(ctx, func(repo *store.Repo) error {
		nonce, err := repo.GetMakerNonce(bytesKey(maker))
		if err != nil {
			return err
		}
		if id, err = l.createIn(repo, maker, c, nonce, affiliate); err != nil {
			return err
		}
		return repo.SetMakerNonce(bytesKey(maker), nonce+1)
	})
	if err != nil {
		return common.Hash{}, l.rejected("create", err)
	}
	l.created(id, c)
	return id, nil
}

// CreateSaltedOrder creates an order under a caller-chosen nonce. The maker
// nonce counter is left alone; reusing a salt for identical terms fails with
// ErrOrderAlreadyExist.
func (l *Ledger) CreateSaltedOrder(ctx context.Context, maker []byte, c OrderCreation, salt uint64, affiliate *AffiliateFee) (common.Hash, error) {
	if err := l.validateCreation(maker, c, affiliate); err != nil {
		return common.Hash{}, l.rejected("create", err)
	}
	unlock := l.locks.Lock(makerKey(maker))
	defer unlock()

	var id common.Hash
	err := l.db.Transact(ctx, func(repo *store.Repo) error {
		var err error
		id, err = l.createIn(repo, maker, c, salt, affiliate)
		return err
	})
	if err != nil {
		return common.Hash{}, l.rejected("create", err)
	}
	l.created(id, c)
	return id, nil
}

func (l *Ledger) createIn(repo *store.Repo, maker []byte, c OrderCreation, nonce uint64, affiliate *AffiliateFee) (common.Hash, error) {
	order := types.Order{
		MakerOrderNonce:             nonce,
		MakerSrc:                    maker,
		Give:                        types.Offer{ChainID: l.settings.LocalChainID, Token: c.GiveToken, Amount: c.GiveAmount},
		Take:                        types.Offer{ChainID: c.TakeChainID, Token: c.TakeToken, Amount: c.TakeAmount},
		ReceiverDst:                 c.ReceiverDst,
		GivePatchAuthoritySrc:       c.GivePatchAuthoritySrc,
		OrderAuthorityAddressDst:    c.OrderAuthorityAddressDst,
		AllowedTakerDst:             c.AllowedTakerDst,
		AllowedCancelBeneficiarySrc: c.AllowedCancelBeneficiarySrc,
		ExternalCall:                c.ExternalCall,
	}
	id, err := types.OrderID(order)
	if err != nil {
		return common.Hash{}, err
	}
	existing, err := repo.FindOrder(id.Hex())
	if err != nil {
		return common.Hash{}, err
	}
	if existing != nil {
		return common.Hash{}, errorsmod.Wrapf(types.ErrOrderAlreadyExist, "order %s", id.Hex())
	}

	affiliateAmount, affiliateTo := math.ZeroInt(), []byte(nil)
	if affiliate != nil {
		affiliateAmount, affiliateTo = types.AmountOrZero(affiliate.Amount), affiliate.Beneficiary
	}
	fees, err := l.settings.Fees.ComputeCreateFees(c.GiveAmount, affiliateAmount)
	if err != nil {
		return common.Hash{}, err
	}
	if err := l.escrow.Lock(repo.Context(), c.GiveToken, maker, c.GiveAmount); err != nil {
		return common.Hash{}, err
	}
	if err := repo.CreateOrder(toModel(id, order, fees, affiliateTo)); err != nil {
		return common.Hash{}, err
	}
	return id, nil
}

func (l *Ledger) created(id common.Hash, c OrderCreation) {
	l.metrics.OrderEvent("created")
	l.logger.Info().
		Str("order_id", id.Hex()).
		Uint64("take_chain_id", c.TakeChainID).
		Str("give_amount", c.GiveAmount.String()).
		Msg("order created")
}

// PatchOrderGive adds to the give amount of an order still in Created. Only
// the order's give patch authority may call it; the addition is charged the
// percent fee and must exceed the configured minimum.
func (l *Ledger) PatchOrderGive(ctx context.Context, caller []byte, orderID common.Hash, add math.Int) error {
	add, minPatch := types.AmountOrZero(add), types.AmountOrZero(l.settings.MinPatchAmount)

	unlock := l.locks.Lock(orderID)
	defer unlock()

	var net math.Int
	err := l.db.Transact(ctx, func(repo *store.Repo) error {
		o, err := findOrder(repo, orderID)
		if err != nil {
			return err
		}
		if !bytes.Equal(decodeBytes(o.GivePatchAuthoritySrc), caller) {
			return errorsmod.Wrapf(types.ErrPatchAuthorityBadRole, "order %s", orderID.Hex())
		}
		if o.Status != string(types.OrderCreated) {
			return errorsmod.Wrapf(types.ErrOrderAlreadyProcessed, "order %s is %s", orderID.Hex(), o.Status)
		}
		if add.IsZero() || add.LT(minPatch) {
			return errorsmod.Wrapf(types.ErrWrongPatchAmount, "add %s below minimum %s", add, minPatch)
		}
		percent, err := types.PercentOf(add, l.settings.Fees.PercentFeeBps)
		if err != nil {
			return err
		}
		if net = add.Sub(percent); net.IsZero() {
			return errorsmod.Wrapf(types.ErrWrongPatchAmount, "add %s is consumed by fees", add)
		}
		giveAmount, err := addStored(o.GiveAmount, net)
		if err != nil {
			return err
		}
		percentFee, err := addStored(o.PercentFee, percent)
		if err != nil {
			return err
		}
		if err := l.escrow.Lock(repo.Context(), decodeBytes(o.GiveToken), caller, add); err != nil {
			return err
		}
		return l.transition(repo, orderID, types.OrderCreated, map[string]any{
			"give_amount": giveAmount.String(),
			"percent_fee": percentFee.String(),
		})
	})
	if err != nil {
		return l.rejected("patch", err)
	}
	l.metrics.OrderEvent("patched")
	l.logger.Info().Str("order_id", orderID.Hex()).Str("added", net.String()).Msg("order give patched")
	return nil
}

// ClaimUnlock settles a fulfilled order: the give amount goes to the
// beneficiary named in the claim payload.
func (l *Ledger) ClaimUnlock(ctx context.Context, caller []byte, orderID common.Hash, msg ClaimMessage) error {
	return l.claim(ctx, caller, orderID, msg, InstructionUnlock, types.OrderClaimedUnlock)
}

// ClaimOrderCancel refunds a cancelled order to its cancel beneficiary.
func (l *Ledger) ClaimOrderCancel(ctx context.Context, caller []byte, orderID common.Hash, msg ClaimMessage) error {
	return l.claim(ctx, caller, orderID, msg, InstructionCancel, types.OrderClaimedCancel)
}

func (l *Ledger) claim(ctx context.Context, caller []byte, orderID common.Hash, msg ClaimMessage, instruction Instruction, to types.OrderStatus) error {
	event := "claim_" + instruction.String()
	if len(l.settings.CallProxy) == 0 || !bytes.Equal(caller, l.settings.CallProxy) {
		return l.rejected(event, errorsmod.Wrap(types.ErrCallProxyBadRole, "claims are delivered by the call proxy"))
	}

	unlock := l.locks.Lock(orderID, msg.SubmissionID)
	defer unlock()

	err := l.db.Transact(ctx, func(repo *store.Repo) error {
		o, err := findOrder(repo, orderID)
		if err != nil {
			return err
		}
		if o.Status != string(types.OrderCreated) {
			return errorsmod.Wrapf(types.ErrOrderAlreadyProcessed, "order %s is %s", orderID.Hex(), o.Status)
		}
		beneficiary, err := l.validateClaim(o, orderID, msg, instruction)
		if err != nil {
			return err
		}
		if err := l.gate.CheckAndConsumeIn(repo, gate.CheckRequest{
			SubmissionID: msg.SubmissionID,
			Signatures:   msg.Signatures,
		}); err != nil {
			return err
		}

		payout, err := l.payout(o, to)
		if err != nil {
			return err
		}
		if err := l.escrow.Release(repo.Context(), decodeBytes(o.GiveToken), beneficiary, payout); err != nil {
			return err
		}
		return l.transition(repo, orderID, types.OrderCreated, map[string]any{
			"status":     string(to),
			"claimed_by": msg.SubmissionID.Hex(),
		})
	})
	if err != nil {
		return l.rejected(event, err)
	}
	l.gate.Committed(msg.SubmissionID)
	l.metrics.OrderEvent(event)
	l.logger.Info().
		Str("order_id", orderID.Hex()).
		Str("status", string(to)).
		Str("submission_id", msg.SubmissionID.Hex()).
		Msg("order claimed")
	return nil
}

// validateClaim checks the provenance of msg and returns the beneficiary
// the payout goes to.
func (l *Ledger) validateClaim(o *store.Order, orderID common.Hash, msg ClaimMessage, want Instruction) ([]byte, error) {
	if len(l.settings.ExecutorProgram) == 0 || !bytes.Equal(msg.ProgramID, l.settings.ExecutorProgram) {
		return nil, errorsmod.Wrapf(types.ErrWrongClaimParentProgramID, "program %x", msg.ProgramID)
	}
	instruction, payloadOrder, beneficiary, err := DecodeClaimPayload(msg.Payload)
	if errorsmod.IsOf(err, types.ErrWrongClaimParentInstruction) {
		return nil, err
	}
	if instruction != want {
		return nil, errorsmod.Wrapf(types.ErrWrongClaimParentInstruction, "got %s, want %s", instruction, want)
	}
	if err != nil {
		return nil, err
	}
	if msg.SourceChain != o.TakeChainID {
		return nil, errorsmod.Wrapf(types.ErrWrongClaimParentSourceChain, "message from chain %d, order takes on %d", msg.SourceChain, o.TakeChainID)
	}
	counterpart, ok := l.settings.Counterparts[msg.SourceChain]
	if !ok || !bytes.Equal(msg.NativeSender, counterpart) {
		return nil, errorsmod.Wrapf(types.ErrWrongClaimParentNativeSender, "sender %x on chain %d", msg.NativeSender, msg.SourceChain)
	}
	expected := types.ClaimSubmissionID(msg.SourceChain, l.settings.LocalChainID, msg.NativeSender, msg.Payload, msg.Nonce)
	if expected != msg.SubmissionID {
		return nil, errorsmod.Wrapf(types.ErrWrongClaimParentSubmission, "submission %s, derived %s", msg.SubmissionID.Hex(), expected.Hex())
	}
	if !bytes.Equal(msg.SubmissionAuth, types.SubmissionAuthority(msg.SubmissionID)) {
		return nil, errorsmod.Wrap(types.ErrWrongClaimParentSubmissionAuth, "submission authority does not match submission")
	}

	if payloadOrder != orderID {
		return nil, errorsmod.Wrapf(types.ErrWrongClaimParentAccounts, "payload settles %s", payloadOrder.Hex())
	}
	if err := l.settings.Chains.ValidateFor(l.settings.LocalChainID, beneficiary); err != nil {
		return nil, errorsmod.Wrapf(types.ErrWrongClaimParentAccounts, "beneficiary: %s", err)
	}
	if want == InstructionCancel {
		allowed := decodeBytes(o.AllowedCancelBeneficiarySrc)
		if len(allowed) == 0 {
			allowed = decodeBytes(o.MakerSrc)
		}
		if !bytes.Equal(beneficiary, allowed) {
			return nil, errorsmod.Wrap(types.ErrWrongClaimParentAccounts, "cancel beneficiary is not allowed")
		}
	}
	return beneficiary, nil
}

// payout is what leaves escrow when the order reaches status to.
func (l *Ledger) payout(o *store.Order, to types.OrderStatus) (math.Int, error) {
	giveAmount, err := types.ParseAmount(o.GiveAmount)
	if err != nil {
		return math.Int{}, err
	}
	if to == types.OrderClaimedUnlock {
		return giveAmount, nil
	}
	refund := []string{o.PercentFee, o.AffiliateFee}
	if l.settings.RefundFixFeeOnCancel {
		refund = append(refund, o.FixFee)
	}
	total := giveAmount
	for _, part := range refund {
		if total, err = addStored(part, total); err != nil {
			return math.Int{}, err
		}
	}
	return total, nil
}

// WithdrawAffiliateFee pays the affiliate fee of an unlocked order to its
// affiliate beneficiary, once.
func (l *Ledger) WithdrawAffiliateFee(ctx context.Context, caller []byte, orderID common.Hash) (math.Int, error) {
	unlock := l.locks.Lock(orderID)
	defer unlock()

	var fee math.Int
	err := l.db.Transact(ctx, func(repo *store.Repo) error {
		o, err := findOrder(repo, orderID)
		if err != nil {
			return err
		}
		if fee, err = types.ParseAmount(o.AffiliateFee); err != nil {
			return err
		}
		beneficiary := decodeBytes(o.AffiliateTo)
		switch {
		case fee.IsZero():
			return errorsmod.Wrapf(types.ErrAffiliateFeeNotReadyToPay, "order %s has no affiliate fee", orderID.Hex())
		case o.Status != string(types.OrderClaimedUnlock):
			return errorsmod.Wrapf(types.ErrAffiliateFeeNotReadyToPay, "order %s is %s", orderID.Hex(), o.Status)
		case !bytes.Equal(caller, beneficiary):
			return errorsmod.Wrapf(types.ErrAffiliateFeeNotReadyToPay, "caller is not the affiliate of %s", orderID.Hex())
		}
		paid, err := repo.MarkAffiliatePaid(orderID.Hex())
		if err != nil {
			return err
		}
		if !paid {
			return errorsmod.Wrapf(types.ErrAffiliateFeeNotReadyToPay, "affiliate fee of %s already paid", orderID.Hex())
		}
		return l.escrow.Release(repo.Context(), decodeBytes(o.GiveToken), beneficiary, fee)
	})
	if err != nil {
		return math.Int{}, l.rejected("affiliate_fee", err)
	}
	l.metrics.OrderEvent("affiliate_fee_paid")
	l.logger.Info().Str("order_id", orderID.Hex()).Str("amount", fee.String()).Msg("affiliate fee paid")
	return fee, nil
}

func (l *Ledger) transition(repo *store.Repo, orderID common.Hash, from types.OrderStatus, updates map[string]any) error {
	n, err := repo.UpdateOrderIfStatus(orderID.Hex(), string(from), updates)
	if err != nil {
		return err
	}
	if n != 1 {
		return errorsmod.Wrapf(types.ErrOrderAlreadyProcessed, "order %s left %s", orderID.Hex(), from)
	}
	return nil
}

func (l *Ledger) rejected(op string, err error) error {
	l.logger.Debug().Err(err).Str("op", op).Msg("order operation rejected")
	return err
}

func findOrder(repo *store.Repo, id common.Hash) (*store.Order, error) {
	o, err := repo.FindOrder(id.Hex())
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, errorsmod.Wrapf(types.ErrNotExist, "order %s", id.Hex())
	}
	return o, nil
}

func addStored(stored string, add math.Int) (math.Int, error) {
	current, err := types.ParseAmount(stored)
	if err != nil {
		return math.Int{}, err
	}
	return types.AddAmounts(current, add)
}
