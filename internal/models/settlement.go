package models

// SettlementSuggestion is a proposed peer-to-peer payment that moves both
// parties toward a zero balance. Suggestions are computed on demand from
// current balances and are never persisted; any recorded transaction makes a
// previously computed plan stale.
type SettlementSuggestion struct {
	// From is the userID of the debtor making the payment.
	From string `json:"from"`

	// To is the userID of the creditor receiving it.
	To string `json:"to"`

	// Amount is the payment amount.
	Amount float64 `json:"amount"`
}
