// Package display renders base-unit chain amounts for people.
package display

import (
	"math/big"
	"strings"
)

// Unknown is shown in place of a value that could not be read.
const Unknown = "?"

// BaseDecimals is the fixed-point scale of native amounts (wei-style).
const BaseDecimals = 18

var baseUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(BaseDecimals), nil)

// Format converts a base-unit amount into a decimal string truncated to
// decimals places. A nonzero amount that truncates to zero is shown as
// "<0.1" padded with zeros to decimals+2 characters ("<0.1000" at 4).
func Format(amount *big.Int, decimals int) string {
	if amount == nil {
		return Unknown
	}
	if decimals < 0 {
		decimals = 0
	}
	if amount.Sign() == 0 {
		return zero(decimals)
	}

	abs := new(big.Int).Abs(amount)
	whole, rem := new(big.Int).QuoRem(abs, baseUnit, new(big.Int))
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	frac := rem.Mul(rem, scale)
	frac.Quo(frac, baseUnit)

	if whole.Sign() == 0 && frac.Sign() == 0 {
		return "<" + below(decimals)
	}

	var sb strings.Builder
	if amount.Sign() < 0 {
		sb.WriteByte('-')
	}
	sb.WriteString(whole.String())
	if decimals > 0 {
		fs := frac.String()
		sb.WriteByte('.')
		sb.WriteString(strings.Repeat("0", decimals-len(fs)))
		sb.WriteString(fs)
	}
	return sb.String()
}

// Integer renders an exact count such as a token supply.
func Integer(n *big.Int) string {
	if n == nil {
		return Unknown
	}
	return n.String()
}

func zero(decimals int) string {
	if decimals == 0 {
		return "0"
	}
	return "0." + strings.Repeat("0", decimals)
}

// below is "0.1" right-padded with zeros to decimals+2 characters. It is
// never shortened, so 0 and 1 decimals both give "0.1".
func below(decimals int) string {
	const lead = "0.1"
	if n := decimals + 2 - len(lead); n > 0 {
		return lead + strings.Repeat("0", n)
	}
	return lead
}
