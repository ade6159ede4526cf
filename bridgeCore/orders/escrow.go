package orders

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/pushchain/push-bridge-core/bridgeCore/db"
	"github.com/pushchain/push-bridge-core/bridgeCore/store"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// Escrow moves value into and out of order escrow. The ledger calls it
// inside its own transaction; ctx carries the store.Repo of that
// transaction, so an implementation that writes to the same database can
// join it and be rolled back together with the order.
type Escrow interface {
	Lock(ctx context.Context, token, from []byte, amount math.Int) error
	Release(ctx context.Context, token, to []byte, amount math.Int) error
}

// escrowAccount holds everything locked by orders.
const escrowAccount = "escrow"

// Book is an Escrow kept in the coordinator database as per-token balances.
type Book struct {
	db *db.DB
}

func NewBook(database *db.DB) *Book {
	return &Book{db: database}
}

// Deposit credits account with amount of token.
func (b *Book) Deposit(ctx context.Context, token, account []byte, amount math.Int) error {
	return b.within(ctx, func(repo *store.Repo) error {
		return credit(repo, hexutil.Encode(token), hexutil.Encode(account), amount)
	})
}

// Balance returns what account holds of token.
func (b *Book) Balance(ctx context.Context, token, account []byte) (math.Int, error) {
	return b.balance(ctx, hexutil.Encode(token), hexutil.Encode(account))
}

// Escrowed returns the amount of token currently locked by orders.
func (b *Book) Escrowed(ctx context.Context, token []byte) (math.Int, error) {
	return b.balance(ctx, hexutil.Encode(token), escrowAccount)
}

func (b *Book) Lock(ctx context.Context, token, from []byte, amount math.Int) error {
	return b.within(ctx, func(repo *store.Repo) error {
		return transfer(repo, hexutil.Encode(token), hexutil.Encode(from), escrowAccount, amount)
	})
}

func (b *Book) Release(ctx context.Context, token, to []byte, amount math.Int) error {
	return b.within(ctx, func(repo *store.Repo) error {
		return transfer(repo, hexutil.Encode(token), escrowAccount, hexutil.Encode(to), amount)
	})
}

func (b *Book) balance(ctx context.Context, token, account string) (math.Int, error) {
	out := math.ZeroInt()
	err := b.within(ctx, func(repo *store.Repo) error {
		var err error
		out, err = readBalance(repo, token, account)
		return err
	})
	return out, err
}

// within joins the caller's transaction when ctx carries one.
func (b *Book) within(ctx context.Context, fn func(repo *store.Repo) error) error {
	if repo, ok := store.FromContext(ctx); ok {
		return fn(repo)
	}
	return b.db.Transact(ctx, fn)
}

func readBalance(repo *store.Repo, token, account string) (math.Int, error) {
	raw, err := repo.GetBalance(token, account)
	if err != nil {
		return math.Int{}, err
	}
	return types.ParseAmount(raw)
}

func credit(repo *store.Repo, token, account string, amount math.Int) error {
	current, err := readBalance(repo, token, account)
	if err != nil {
		return err
	}
	next, err := types.AddAmounts(current, amount)
	if err != nil {
		return err
	}
	return repo.SetBalance(token, account, next.String())
}

func transfer(repo *store.Repo, token, from, to string, amount math.Int) error {
	amount = types.AmountOrZero(amount)
	if amount.IsZero() {
		return nil
	}
	current, err := readBalance(repo, token, from)
	if err != nil {
		return err
	}
	if current.LT(amount) {
		return errorsmod.Wrapf(types.ErrWrongArgument, "insufficient balance of %s: has %s, needs %s", from, current, amount)
	}
	if err := repo.SetBalance(token, from, current.Sub(amount).String()); err != nil {
		return err
	}
	return credit(repo, token, to, amount)
}
