package statutory

import (
	"math"

	"github.com/shopspring/decimal"
)

// Money is a KES amount held at full precision. Values are rounded only
// when they leave the engine.
type Money = decimal.Decimal

const displayPlaces = 2

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Round2 rounds half away from zero to two decimal places.
func Round2(m Money) Money {
	return m.Round(displayPlaces)
}

// MoneyFromFloat converts a caller supplied amount. NaN and infinities are
// rejected with ErrComputationOverflow, negative amounts with ErrInvalidInput.
func MoneyFromFloat(field string, v float64) (Money, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, &InputError{Field: field, Reason: "must be a finite number", kind: ErrComputationOverflow}
	}
	if v < 0 {
		return decimal.Zero, &InputError{Field: field, Reason: "must not be negative", kind: ErrInvalidInput}
	}
	return decimal.NewFromFloat(v), nil
}

func nonNegative(m Money) Money {
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}

func percentOf(base Money, rate decimal.Decimal) Money {
	return base.Mul(rate)
}
