// Package money holds the rounding and currency conversion rules shared by
// voucher computations. Local currency (LC) is authoritative; the foreign
// currency (FC) amount is derived from it with a single fixed rate.
package money

import "github.com/shopspring/decimal"

// Places is the number of decimals kept on every stored amount.
const Places = 2

// Round2 rounds x to two decimals, half away from zero.
func Round2(x float64) float64 {
	f, _ := decimal.NewFromFloat(x).Round(Places).Float64()
	return f
}

// ToFC converts a local amount into the foreign currency.
// A non-positive rate is a caller bug and panics.
func ToFC(amountLC, rate float64) float64 {
	mustRate(rate)
	f, _ := decimal.NewFromFloat(amountLC).
		DivRound(decimal.NewFromFloat(rate), 16).
		Round(Places).
		Float64()
	return f
}

// ToLC converts a foreign amount into the local currency.
// A non-positive rate is a caller bug and panics.
func ToLC(amountFC, rate float64) float64 {
	mustRate(rate)
	f, _ := decimal.NewFromFloat(amountFC).
		Mul(decimal.NewFromFloat(rate)).
		Round(Places).
		Float64()
	return f
}

// Sum adds amounts without accumulating binary floating point error.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	f, _ := total.Float64()
	return f
}

// Diff returns a-b computed in decimal.
func Diff(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Float64()
	return f
}

// Percent returns round2(basis * pct / 100).
func Percent(basis, pct float64) float64 {
	f, _ := decimal.NewFromFloat(basis).
		Mul(decimal.NewFromFloat(pct)).
		Div(decimal.NewFromInt(100)).
		Round(Places).
		Float64()
	return f
}

// Gross reconstructs the 100% value from an amount that represents pct
// percent of it. Not rounded: callers derive other amounts from it.
func Gross(amount, pct float64) float64 {
	f, _ := decimal.NewFromFloat(amount).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromFloat(pct), 16).
		Float64()
	return f
}

func mustRate(rate float64) {
	if rate <= 0 {
		panic("money: exchange rate must be positive")
	}
}
