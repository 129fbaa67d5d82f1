package domain

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultTokenDecimals is used when a token has no configured precision.
const DefaultTokenDecimals int32 = 18

var balanceSuffixes = []struct {
	threshold decimal.Decimal
	suffix    string
}{
	{decimal.New(1, 12), "T"},
	{decimal.New(1, 9), "B"},
	{decimal.New(1, 6), "M"},
	{decimal.New(1, 3), "K"},
}

var balanceCap = decimal.New(999, 12)

// ParseUnits converts a user-entered decimal amount into base units, truncating
// digits beyond the token precision.
func ParseUnits(amount string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("invalid amount %q: negative", amount)
	}
	return d.Shift(decimals).Truncate(0).BigInt(), nil
}

// FormatUnits converts base units back to a decimal value.
func FormatUnits(v *big.Int, decimals int32) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -decimals)
}

// FormatBalance renders a raw token balance in compact form: K/M/B/T suffixes,
// ">999T" above the cap, 2 decimals from 1, 4 decimals from 0.01 and an
// exponent below that.
func FormatBalance(balance *big.Int, decimals int32) string {
	if balance == nil || balance.Sign() == 0 {
		return "0"
	}
	num := FormatUnits(balance, decimals)

	if num.GreaterThanOrEqual(balanceCap) {
		return ">999T"
	}
	for _, s := range balanceSuffixes {
		if num.GreaterThanOrEqual(s.threshold) {
			return num.Div(s.threshold).StringFixed(2) + s.suffix
		}
	}
	if num.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return num.StringFixed(2)
	}
	if num.GreaterThanOrEqual(decimal.New(1, -2)) {
		return num.StringFixed(4)
	}

	// 1.5e-05 -> 1.50e-5
	s := strconv.FormatFloat(num.InexactFloat64(), 'e', 2, 64)
	mant, exp, _ := strings.Cut(s, "e")
	n, _ := strconv.Atoi(exp)
	return mant + "e" + strconv.Itoa(n)
}
