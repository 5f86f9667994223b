package models

// Split types accepted on incoming transactions. Percentage and share based
// splits are resolved into decimal amounts before the ledger sees them; the
// stored Splits map always holds currency amounts.
const (
	SplitTypeEqual      = "equal"
	SplitTypeCustom     = "custom"
	SplitTypePercentage = "percentage"
	SplitTypeShares     = "shares"
)

// Transaction records a shared expense, or a settlement entry when
// IsSettlement is set. Its balance effect is: credit the payer by Amount,
// debit each split participant by their share.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string `json:"id"`

	// GroupID is the group this transaction belongs to.
	GroupID string `json:"group_id"`

	// Amount is the total transaction amount. Always positive.
	Amount float64 `json:"amount"`

	// PaidBy is the userID of the member who paid.
	PaidBy string `json:"paid_by"`

	// SplitType records how the split was originally expressed.
	SplitType string `json:"split_type"`

	// Splits maps userID to the decimal amount that member owes toward this
	// transaction. Keys need not include the payer. The values sum to Amount
	// within the validation tolerance.
	Splits map[string]float64 `json:"splits"`

	// Description is an optional note for the transaction.
	Description string `json:"description,omitempty"`

	// IsSettlement distinguishes bookkeeping settlement entries from real
	// expenses. A settlement is an ordinary transaction with a single-entry
	// splits map.
	IsSettlement bool `json:"is_settlement"`

	// IsDeleted marks a soft-deleted transaction. Deleted transactions are
	// invisible to the engine and can never be un-deleted.
	IsDeleted bool `json:"is_deleted"`

	// CreatedBy is the userID of the caller who recorded this transaction.
	CreatedBy string `json:"created_by,omitempty"`

	// CreatedAt is the Unix timestamp when the transaction was recorded.
	CreatedAt int64 `json:"created_at"`
}
