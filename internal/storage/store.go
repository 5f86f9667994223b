// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/models"
)

var (
	// ErrNotFound is returned when a group, member or transaction does not
	// exist (or has been soft-deleted).
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write could not be serialized against
	// concurrent writers. The operation had no effect and is safe to retry.
	ErrConflict = errors.New("storage conflict")
)

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the engine.
type Store interface {
	// CreateGroup persists a new group. The creator, when non-empty, becomes
	// its first member. The group.ID field will be populated by the store.
	CreateGroup(ctx context.Context, group *models.Group, creatorID string) error

	// GetGroup retrieves a group by its ID, active or not.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// DeactivateGroup soft-deactivates a group, preserving its history.
	DeactivateGroup(ctx context.Context, groupID string) error

	// AddMember adds a user to a group with a zero balance. Re-adding a
	// previously removed member reactivates them with their old balance.
	AddMember(ctx context.Context, groupID, userID string) error

	// DeactivateMember soft-removes a member from a group.
	DeactivateMember(ctx context.Context, groupID, userID string) error

	// ListBalances returns the balance of every active member of the group.
	ListBalances(ctx context.Context, groupID string) ([]models.MemberBalance, error)

	// GetTransaction retrieves a non-deleted transaction with its splits.
	GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)

	// ListTransactionsByGroup returns the group's non-deleted transactions,
	// newest first.
	ListTransactionsByGroup(ctx context.Context, groupID string) ([]*models.Transaction, error)

	// WithTx runs fn inside a single database transaction. If fn returns an
	// error the transaction is rolled back and nothing fn did is visible.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any resources held by the store.
	Close() error
}

// Tx is the set of operations available inside a storage transaction. All
// writes performed through one Tx commit or roll back together.
type Tx interface {
	// GetTransaction retrieves a non-deleted transaction with its splits,
	// reading the committed state this Tx is serialized against. Reversals
	// computed from it therefore cannot act on effects another writer has
	// already replaced.
	GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)

	// InsertTransaction persists a new transaction row and its splits.
	// ID and CreatedAt are populated when unset.
	InsertTransaction(ctx context.Context, txn *models.Transaction) error

	// UpdateTransaction replaces the mutable fields and splits of an existing
	// non-deleted transaction.
	UpdateTransaction(ctx context.Context, txn *models.Transaction) error

	// MarkTransactionDeleted soft-deletes a transaction. Deleting a
	// transaction that is already deleted reports ErrNotFound, which also
	// aborts any balance reversal performed earlier in the same Tx.
	MarkTransactionDeleted(ctx context.Context, transactionID string) error

	// AdjustBalance atomically adds delta to the member's balance as a single
	// read-modify-write statement. It reports false when no active member row
	// matched, which is not an error.
	AdjustBalance(ctx context.Context, groupID, userID string, delta float64) (bool, error)
}
