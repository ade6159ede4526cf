package types

import (
	"math/big"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
)

// MaxAmount is the largest representable amount, 2^256 - 1.
var MaxAmount = math.NewIntFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)))

// ParseAmount parses an unsigned decimal amount.
func ParseAmount(s string) (math.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.ZeroInt(), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return math.Int{}, errorsmod.Wrapf(ErrWrongArgument, "invalid amount %q", s)
	}
	if v.Sign() < 0 {
		return math.Int{}, errorsmod.Wrapf(ErrWrongArgument, "negative amount %q", s)
	}
	if v.BitLen() > 256 {
		return math.Int{}, errorsmod.Wrapf(ErrOverflow, "amount %q exceeds 256 bits", s)
	}
	return math.NewIntFromBigInt(v), nil
}

// MustParseAmount is ParseAmount for constants and tests.
func MustParseAmount(s string) math.Int {
	v, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return v
}

// AmountOrZero replaces a nil amount with zero.
func AmountOrZero(a math.Int) math.Int {
	if a.IsNil() {
		return math.ZeroInt()
	}
	return a
}

// AddAmounts returns a+b or ErrOverflow.
func AddAmounts(a, b math.Int) (math.Int, error) {
	sum, err := AmountOrZero(a).SafeAdd(AmountOrZero(b))
	if err != nil {
		return math.Int{}, errorsmod.Wrapf(ErrOverflow, "%s + %s", a, b)
	}
	return sum, nil
}

// SubAmounts returns a-b, failing with ErrOverflow when b > a.
func SubAmounts(a, b math.Int) (math.Int, error) {
	a, b = AmountOrZero(a), AmountOrZero(b)
	if a.LT(b) {
		return math.Int{}, errorsmod.Wrapf(ErrOverflow, "%s - %s underflows", a, b)
	}
	return a.Sub(b), nil
}

// PercentOf returns floor(amount * bps / 10000).
func PercentOf(amount math.Int, bps uint64) (math.Int, error) {
	product, err := AmountOrZero(amount).SafeMul(math.NewIntFromUint64(bps))
	if err != nil {
		return math.Int{}, errorsmod.Wrapf(ErrOverflow, "%s * %d bps", amount, bps)
	}
	return product.Quo(math.NewIntFromUint64(BpsDenominator)), nil
}

// FeePolicy is the fee schedule applied to new orders.
type FeePolicy struct {
	FixFee        math.Int
	PercentFeeBps uint64
}

// FeeBreakdown splits a give amount into the escrowed remainder and fees.
type FeeBreakdown struct {
	GiveAmount   math.Int
	FixFee       math.Int
	PercentFee   math.Int
	AffiliateFee math.Int
}

// Total sums every component of the breakdown.
func (b FeeBreakdown) Total() (math.Int, error) {
	total := math.ZeroInt()
	for _, part := range []math.Int{b.GiveAmount, b.FixFee, b.PercentFee, b.AffiliateFee} {
		var err error
		if total, err = AddAmounts(total, part); err != nil {
			return math.Int{}, err
		}
	}
	return total, nil
}

// ComputeCreateFees deducts the affiliate, percent and fixed fees from give.
// The percent fee is charged on the amount left after the affiliate fee.
func (p FeePolicy) ComputeCreateFees(give, affiliateFee math.Int) (FeeBreakdown, error) {
	if p.PercentFeeBps > BpsDenominator {
		return FeeBreakdown{}, errorsmod.Wrapf(ErrWrongArgument, "percent fee %d bps exceeds %d", p.PercentFeeBps, BpsDenominator)
	}
	give, affiliateFee = AmountOrZero(give), AmountOrZero(affiliateFee)
	fix := AmountOrZero(p.FixFee)

	afterAffiliate, err := SubAmounts(give, affiliateFee)
	if err != nil {
		return FeeBreakdown{}, errorsmod.Wrap(ErrWrongArgument, "affiliate fee exceeds give amount")
	}
	percent, err := PercentOf(afterAffiliate, p.PercentFeeBps)
	if err != nil {
		return FeeBreakdown{}, err
	}
	fees, err := AddAmounts(fix, percent)
	if err != nil {
		return FeeBreakdown{}, err
	}
	if afterAffiliate.LTE(fees) {
		return FeeBreakdown{}, errorsmod.Wrapf(ErrWrongArgument, "give amount %s does not cover fees %s", afterAffiliate, fees)
	}
	return FeeBreakdown{
		GiveAmount:   afterAffiliate.Sub(fees),
		FixFee:       fix,
		PercentFee:   percent,
		AffiliateFee: affiliateFee,
	}, nil
}
