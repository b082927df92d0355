// Package money holds rounding and allocation helpers for currency amounts.
//
// Amounts travel through the service as float64 (as they are stored), but every
// operation that has to be exact to the cent goes through shopspring/decimal.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Epsilon is one cent. Balances and transfers at or below it are noise.
const Epsilon = 0.01

// slack absorbs binary representation error when comparing against Epsilon.
const slack = 1e-9

// Round2 rounds an amount to cents, half away from zero.
func Round2(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// Equal reports whether a and b are within one cent of each other.
func Equal(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon+slack
}

// EqualCents reports whether a and b round to the same number of cents.
func EqualCents(a, b float64) bool {
	return toCents(a) == toCents(b)
}

// IsNoise reports whether an amount is too small to be worth moving.
func IsNoise(amount float64) bool {
	return math.Abs(amount) <= Epsilon+slack
}

// Sum adds amounts in decimal so that long lists of cents do not drift.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.InexactFloat64()
}

// AllocateEqual splits total into n cent-exact shares. Leftover cents go to the
// first shares, so 100 over 3 yields 33.34, 33.33, 33.33.
func AllocateEqual(total float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	cents := toCents(total)
	base := cents / int64(n)
	rem := cents % int64(n)

	shares := make([]float64, n)
	for i := range shares {
		c := base
		if int64(i) < rem {
			c++
		}
		shares[i] = fromCents(c)
	}
	return shares
}

// Reconcile rounds each part to cents and nudges the parts one cent at a time,
// in order, until they add up to total exactly.
func Reconcile(parts []float64, total float64) []float64 {
	if len(parts) == 0 {
		return nil
	}
	cents := make([]int64, len(parts))
	var sum int64
	for i, p := range parts {
		cents[i] = toCents(p)
		sum += cents[i]
	}

	diff := toCents(total) - sum
	step := int64(1)
	if diff < 0 {
		step = -1
	}
	for i := 0; diff != 0; i = (i + 1) % len(cents) {
		cents[i] += step
		diff -= step
	}

	out := make([]float64, len(parts))
	for i, c := range cents {
		out[i] = fromCents(c)
	}
	return out
}

func toCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Round(2).Shift(2).IntPart()
}

func fromCents(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}
