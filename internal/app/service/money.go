package service

import (
	"math"

	"github.com/shopspring/decimal"
)

// roundCents rounds half away from zero to two decimals.
func roundCents(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

func lineTotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return roundCents(unit.Mul(decimal.NewFromInt(int64(quantity))))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
