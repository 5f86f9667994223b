package ledger

import "errors"

var (
	// ErrSplitMismatch is returned when the proposed split allocation does not
	// sum to the transaction amount within Tolerance. Nothing is mutated.
	ErrSplitMismatch = errors.New("split amounts do not sum to transaction amount")

	// ErrInvalidAmount is returned for non-positive amounts on add/settlement.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrNoOp is returned when a settlement amount resolves to zero within
	// Tolerance, so recording it would change nothing.
	ErrNoOp = errors.New("settlement amount resolves to zero")
)
