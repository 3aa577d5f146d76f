package decimal

import (
	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

// Cent is the smallest MXN unit, used as the default comparison tolerance
var Cent = decimal.New(1, -2)

// FromString parses decimal from string
func FromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// IsNumeric returns true if s parses as a decimal
func IsNumeric(s string) bool {
	_, err := decimal.NewFromString(s)
	return err == nil
}

// Sum sums a slice of decimals
func Sum(values []decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// WithinTolerance returns true if |a - b| <= tolerance
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

// IsNonNegative returns true if decimal is >= zero
func IsNonNegative(d decimal.Decimal) bool {
	return d.GreaterThanOrEqual(Zero)
}

// RoundMXN rounds to centavos
func RoundMXN(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
