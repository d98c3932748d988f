package models

import (
	"errors"
	"math"
)

var (
	ErrEmptyCategoryName = errors.New("category name must not be empty")
	ErrInvalidColor      = errors.New("color must be #rgb or #rrggbb")
)

// ToCents converts an amount to integer cents, rounding half away from zero
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromCents converts cents back to a decimal amount
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

// SplitEvenly divides total cents into n shares that add up to total exactly.
// The first total%n shares receive one extra cent.
func SplitEvenly(total int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	shares := make([]int64, n)
	base := total / int64(n)
	rem := total % int64(n)
	for i := range shares {
		shares[i] = base
		if int64(i) < rem {
			shares[i]++
		}
	}
	return shares
}
