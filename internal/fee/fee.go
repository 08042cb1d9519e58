// Package fee splits a gross amount into the platform fee and the merchant's net amount.
package fee

import (
	"math/bits"

	"paymenthub/internal/domain"
)

// ComputeFeeAndNet returns fee = floor(gross * feeBps / 10000) and net = gross - fee.
// The product is computed in 128 bits, so only a rate above 100% can overflow.
func ComputeFeeAndNet(gross uint64, feeBps uint32) (fee, net uint64, err error) {
	hi, lo := bits.Mul64(gross, uint64(feeBps))
	if hi >= domain.BasisPointsDenominator {
		return 0, 0, domain.ErrArithmeticOverflow
	}
	fee, _ = bits.Div64(hi, lo, domain.BasisPointsDenominator)
	if fee > gross {
		return 0, 0, domain.ErrArithmeticOverflow
	}
	return fee, gross - fee, nil
}

// ValidateRate checks a configured rate against its ceiling. The ceiling itself
// can never exceed 100%.
func ValidateRate(feeBps, maxFeeBps uint32) error {
	if maxFeeBps > domain.BasisPointsDenominator || feeBps > maxFeeBps {
		return domain.ErrFeeTooHigh
	}
	return nil
}
