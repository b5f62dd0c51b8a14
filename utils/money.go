package utils

import "github.com/shopspring/decimal"

// FormatMinorUnits renders an amount in minor currency units as a two-decimal major-unit string, e.g. 1050 -> "10.50"
func FormatMinorUnits(amount int64) string {
	return decimal.New(amount, -2).StringFixed(2)
}
