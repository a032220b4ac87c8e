// Package money provides decimal currency utilities.
package money

import (
	"github.com/akarpov/loan-schedule/pkg/constants"
	"github.com/shopspring/decimal"
)

// Round quantizes a value to two decimals using round-half-to-even, i.e.
// to represent real currency. Applied at every monetary boundary so that
// schedules stay reproducible over long terms.
func Round(val decimal.Decimal) decimal.Decimal {
	return val.RoundBank(constants.MoneyPlaces)
}

// IsZero checks if a value is exactly zero after rounding.
func IsZero(val decimal.Decimal) bool {
	return Round(val).IsZero()
}

// IsPositive checks if a value is positive after rounding.
func IsPositive(val decimal.Decimal) bool {
	return Round(val).IsPositive()
}

// Min returns the smaller of two values.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger of two values.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// WithinTolerance checks if two values are within a specified tolerance.
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

// MustDecimal parses a decimal string and panics on error. This is
// intended for use in tests and constants where the value is known to be
// valid.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
