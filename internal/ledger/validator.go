// Package ledger implements the shared-expense ledger engine: split
// validation, atomic balance mutation, the transaction lifecycle, and
// settlement planning.
package ledger

import (
	"fmt"
	"math"
)

// Tolerance is the absolute slack allowed when comparing amounts, matching
// currency-subunit rounding.
const Tolerance = 0.01

// ValidateSplit checks that a proposed split allocation sums to the
// transaction amount within Tolerance. It runs before any ledger mutation and
// has no side effects.
func ValidateSplit(amount float64, splits map[string]float64) error {
	var sum float64
	for _, share := range splits {
		sum += share
	}
	if math.Abs(amount-sum) > Tolerance {
		return fmt.Errorf("%w: amount=%.2f, splits sum=%.2f", ErrSplitMismatch, amount, sum)
	}
	return nil
}
