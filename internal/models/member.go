package models

// Member ties a user to a group and carries that user's running balance.
// Removed members are deactivated, not deleted, so the ledger history they
// participated in stays intact.
type Member struct {
	// GroupID and UserID together identify the membership; the pair is unique
	// per group.
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`

	// Balance is how much this member is owed (positive) or owes (negative)
	// within the group. It is entirely derived from transaction effects and is
	// only ever written through the ledger's credit/debit primitives.
	Balance float64 `json:"balance"`

	// Active is false once the member has been removed from the group.
	Active bool `json:"active"`

	// CreatedAt is the Unix timestamp when the member joined the group.
	CreatedAt int64 `json:"created_at"`
}

// MemberBalance is the read-model row returned by balance queries.
type MemberBalance struct {
	UserID  string  `json:"user_id"`
	Balance float64 `json:"balance"`
}
