package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/models"
	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/storage"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so reads can run outside
// or inside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetTransaction retrieves a non-deleted transaction by ID, including its
// splits. Soft-deleted transactions report ErrNotFound.
func (s *SQLiteStore) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	return getTransaction(ctx, s.db, transactionID)
}

// GetTransaction reads the transaction inside this Tx, serialized against the
// writes that follow it.
func (t *sqliteTx) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	return getTransaction(ctx, t.tx, transactionID)
}

func getTransaction(ctx context.Context, q querier, transactionID string) (*models.Transaction, error) {
	txn := &models.Transaction{}
	var description sql.NullString
	var createdBy sql.NullString
	var isSettlement, isDeleted int

	err := q.QueryRowContext(ctx,
		`SELECT id, group_id, amount, paid_by, split_type, description, is_settlement, is_deleted, created_by, created_at
		 FROM transactions WHERE id = ? AND is_deleted = 0`,
		transactionID,
	).Scan(&txn.ID, &txn.GroupID, &txn.Amount, &txn.PaidBy, &txn.SplitType,
		&description, &isSettlement, &isDeleted, &createdBy, &txn.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", mapErr(err))
	}
	txn.Description = description.String
	txn.CreatedBy = createdBy.String
	txn.IsSettlement = isSettlement == 1
	txn.IsDeleted = isDeleted == 1

	txn.Splits, err = loadSplits(ctx, q, txn.ID)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// ListTransactionsByGroup returns a group's non-deleted transactions, newest
// first, each with its splits loaded.
func (s *SQLiteStore) ListTransactionsByGroup(ctx context.Context, groupID string) ([]*models.Transaction, error) {
	if err := s.requireGroup(ctx, groupID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, amount, paid_by, split_type, description, is_settlement, created_by, created_at
		 FROM transactions WHERE group_id = ? AND is_deleted = 0 ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", mapErr(err))
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		txn := &models.Transaction{}
		var description, createdBy sql.NullString
		var isSettlement int
		if err := rows.Scan(&txn.ID, &txn.GroupID, &txn.Amount, &txn.PaidBy, &txn.SplitType,
			&description, &isSettlement, &createdBy, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Description = description.String
		txn.CreatedBy = createdBy.String
		txn.IsSettlement = isSettlement == 1
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	for _, txn := range txns {
		txn.Splits, err = loadSplits(ctx, s.db, txn.ID)
		if err != nil {
			return nil, err
		}
	}
	return txns, nil
}

func loadSplits(ctx context.Context, q querier, transactionID string) (map[string]float64, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT user_id, share FROM transaction_splits WHERE transaction_id = ?",
		transactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", mapErr(err))
	}
	defer rows.Close()

	splits := make(map[string]float64)
	for rows.Next() {
		var userID string
		var share float64
		if err := rows.Scan(&userID, &share); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits[userID] = share
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return splits, nil
}

// InsertTransaction persists a new transaction row and its splits.
func (t *sqliteTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt == 0 {
		txn.CreatedAt = time.Now().Unix()
	}

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO transactions (id, group_id, amount, paid_by, split_type, description, is_settlement, is_deleted, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		txn.ID, txn.GroupID, txn.Amount, txn.PaidBy, txn.SplitType,
		nullable(txn.Description), boolToInt(txn.IsSettlement), nullable(txn.CreatedBy), txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", mapErr(err))
	}
	return t.insertSplits(ctx, txn.ID, txn.Splits)
}

// UpdateTransaction replaces the mutable fields and splits of a non-deleted
// transaction.
func (t *sqliteTx) UpdateTransaction(ctx context.Context, txn *models.Transaction) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE transactions SET amount = ?, paid_by = ?, split_type = ?, description = ?
		 WHERE id = ? AND is_deleted = 0`,
		txn.Amount, txn.PaidBy, txn.SplitType, nullable(txn.Description), txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", mapErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", txn.ID, storage.ErrNotFound)
	}

	if _, err := t.tx.ExecContext(ctx,
		"DELETE FROM transaction_splits WHERE transaction_id = ?", txn.ID); err != nil {
		return fmt.Errorf("failed to clear splits: %w", mapErr(err))
	}
	return t.insertSplits(ctx, txn.ID, txn.Splits)
}

// MarkTransactionDeleted soft-deletes a transaction. The is_deleted guard
// means a concurrent delete of the same row surfaces as ErrNotFound, rolling
// back the enclosing reversal instead of reversing twice.
func (t *sqliteTx) MarkTransactionDeleted(ctx context.Context, transactionID string) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE transactions SET is_deleted = 1 WHERE id = ? AND is_deleted = 0",
		transactionID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", mapErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", transactionID, storage.ErrNotFound)
	}
	return nil
}

// AdjustBalance atomically adds delta to a member's balance with a single
// UPDATE statement; concurrent adjustments to the same member serialize at the
// database. Reports false when no active member row matched.
func (t *sqliteTx) AdjustBalance(ctx context.Context, groupID, userID string, delta float64) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE members SET balance = balance + ? WHERE group_id = ? AND user_id = ? AND active = 1",
		delta, groupID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to adjust balance: %w", mapErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to adjust balance: %w", err)
	}
	return n > 0, nil
}

func (t *sqliteTx) insertSplits(ctx context.Context, transactionID string, splits map[string]float64) error {
	userIDs := make([]string, 0, len(splits))
	for userID := range splits {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	for _, userID := range userIDs {
		_, err := t.tx.ExecContext(ctx,
			"INSERT INTO transaction_splits (transaction_id, user_id, share) VALUES (?, ?, ?)",
			transactionID, userID, splits[userID],
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", mapErr(err))
		}
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
