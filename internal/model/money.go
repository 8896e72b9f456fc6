package model

import (
	"fmt"
	"math"
)

// CentsFromAmount converts a decimal amount in major currency units to cents.
// The backend returns product costs and wallet balances as JSON numbers in
// major units (e.g. 99.5 = $99.50); all internal arithmetic is done in cents.
// math.Round handles both positive and negative numbers correctly.
func CentsFromAmount(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// AmountFromCents converts cents back to a major-unit amount for the wire.
func AmountFromCents(cents int64) float64 {
	return float64(cents) / 100
}

// FormatCents renders cents as a dollar string for CLI output.
// Examples: 9900 → "$99.00", 50 → "$0.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
