// Package models defines the core domain models for the group-expense ledger.
//
// # Models
//
//   - Group: a set of people sharing expenses in one currency
//   - Member: a user's membership in a group, carrying the running balance
//   - Transaction: a shared expense or a bookkeeping settlement entry
//   - SettlementSuggestion: a derived payment proposal, never persisted
//
// # Design Principles
//
// 1. **Soft deletion everywhere**: groups, members and transactions are
// deactivated or flagged, never removed, so historical ledger state stays
// reconstructable.
//
// 2. **Balances are derived**: a Member's balance is the accumulated effect of
// transactions applied through the ledger. Nothing else writes it.
//
// 3. **Avoid circular references**: models reference each other by ID strings
// instead of pointers.
package models
