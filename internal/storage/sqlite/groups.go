package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/models"
	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/storage"
)

// CreateGroup persists a new group. The creator, when given, becomes its
// first member.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group, creatorID string) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if group.Currency == "" {
		group.Currency = "USD"
	}
	group.Active = true

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapErr(err))
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, currency, active, created_at) VALUES (?, ?, ?, 1, ?)",
		group.ID, group.Name, group.Currency, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", mapErr(err))
	}

	if creatorID != "" {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO members (group_id, user_id, balance, active, created_at) VALUES (?, ?, 0, 1, ?)",
			group.ID, creatorID, group.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert creator member: %w", mapErr(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapErr(err))
	}
	return nil
}

// GetGroup retrieves a group by ID, whether active or deactivated.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	var active int
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, currency, active, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.Currency, &active, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", mapErr(err))
	}
	group.Active = active == 1
	return group, nil
}

// DeactivateGroup soft-deactivates a group.
func (s *SQLiteStore) DeactivateGroup(ctx context.Context, groupID string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE groups SET active = 0 WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to deactivate group: %w", mapErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to deactivate group: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}

// AddMember adds a user to a group with a zero balance. A previously removed
// member is reactivated and keeps their historical balance.
func (s *SQLiteStore) AddMember(ctx context.Context, groupID, userID string) error {
	if err := s.requireGroup(ctx, groupID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO members (group_id, user_id, balance, active, created_at) VALUES (?, ?, 0, 1, ?)
		 ON CONFLICT(group_id, user_id) DO UPDATE SET active = 1`,
		groupID, userID, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", mapErr(err))
	}
	return nil
}

// DeactivateMember soft-removes a member from a group.
func (s *SQLiteStore) DeactivateMember(ctx context.Context, groupID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE members SET active = 0 WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate member: %w", mapErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to deactivate member: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("member %s in group %s: %w", userID, groupID, storage.ErrNotFound)
	}
	return nil
}

// ListBalances returns the balance of every active member of the group,
// ordered by userID for deterministic output.
func (s *SQLiteStore) ListBalances(ctx context.Context, groupID string) ([]models.MemberBalance, error) {
	if err := s.requireGroup(ctx, groupID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, balance FROM members WHERE group_id = ? AND active = 1 ORDER BY user_id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", mapErr(err))
	}
	defer rows.Close()

	var balances []models.MemberBalance
	for rows.Next() {
		var b models.MemberBalance
		if err := rows.Scan(&b.UserID, &b.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}
	return balances, nil
}

// requireGroup reports ErrNotFound when the group does not exist.
func (s *SQLiteStore) requireGroup(ctx context.Context, groupID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM groups WHERE id = ?", groupID).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check group existence: %w", mapErr(err))
	}
	return nil
}
