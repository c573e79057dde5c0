// Package pricing computes listing prices in tokens.
//
// A listing's price is its seller-supplied base price scaled by the item's
// condition multiplier and its category's price factor, rounded to cents.
package pricing

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// MaxBasePrice is the largest base price a seller may ask.
const MaxBasePrice = 1_000_000

var ErrInvalidBasePrice = errors.New("base price must be greater than 0 and at most 1000000")

// Round2 rounds half away from zero at the second decimal. It rounds the
// shortest decimal form of v, so 1.005 becomes 1.01 even though the nearest
// binary float sits just below it.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= 1e15 {
		return v
	}
	s := strconv.FormatFloat(math.Abs(v), 'f', -1, 64)
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) <= 2 {
		return v
	}
	cents, err := strconv.ParseInt(whole+frac[:2], 10, 64)
	if err != nil {
		return math.Round(v*100) / 100
	}
	if frac[2] >= '5' {
		cents++
	}
	r := float64(cents) / 100
	if v < 0 && cents != 0 {
		r = -r
	}
	return r
}

func Calculate(base, conditionMultiplier, categoryFactor float64) float64 {
	return Round2(base * conditionMultiplier * categoryFactor)
}

func Validate(base float64) error {
	if math.IsNaN(base) || base <= 0 || base > MaxBasePrice {
		return ErrInvalidBasePrice
	}
	return nil
}
