package normalize

import (
	"fmt"
	"math"
)

// DollarsToCents converts a nullable float64 dollar amount to nullable int64 cents.
// Uses math.Round to avoid truncation bias.
func DollarsToCents(v *float64) *int64 {
	if v == nil {
		return nil
	}
	c := int64(math.Round(*v * 100))
	return &c
}

// Cents converts a non-nullable dollar amount to int64 cents.
func Cents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// PercentToBasisPoints converts a nullable float64 percentage to nullable int32
// basis points. e.g. 12.34% -> 1234 bps.
func PercentToBasisPoints(v *float64) *int32 {
	if v == nil {
		return nil
	}
	bp := int32(math.Round(*v * 100))
	return &bp
}

// FormatCents renders int64 cents as a dollar string, e.g. 5250 -> "$52.50".
// Only for output edges; arithmetic stays in cents.
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%d.%02d", sign, c/100, c%100)
}
