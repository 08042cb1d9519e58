// Package amount converts between token base units and human-readable decimals.
package amount

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"

	"paymenthub/internal/domain"
)

// ErrInvalidAmount is returned for text that is not a non-negative decimal with
// at most the token's number of fractional digits.
var ErrInvalidAmount = errors.New("invalid decimal amount")

// Format renders base units with exactly decimals fractional digits, e.g. 98000000 -> "98.000000".
func Format(units uint64, decimals int32) string {
	return ToDecimal(units, decimals).StringFixed(decimals)
}

// ToDecimal converts base units to a decimal value.
func ToDecimal(units uint64, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -decimals)
}

// Parse converts a human amount such as "12.5" into base units.
func Parse(s string, decimals int32) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return FromDecimal(d, decimals)
}

// FromDecimal converts a decimal value into base units.
func FromDecimal(d decimal.Decimal, decimals int32) (uint64, error) {
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	shifted := d.Shift(decimals)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, ErrInvalidAmount
	}
	bi := shifted.BigInt()
	if !bi.IsUint64() {
		return 0, domain.ErrArithmeticOverflow
	}
	return bi.Uint64(), nil
}
