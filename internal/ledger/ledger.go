package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/models"
	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/storage"
)

var orphanAdjustments = promauto.NewCounter(prometheus.CounterOpts{
	Name: "expense_ledger_orphan_adjustments_total",
	Help: "Balance adjustments that matched no active member",
})

// Ledger exposes the atomic credit/debit primitives over member balances.
// Both primitives run inside a caller-provided storage transaction, so a set
// of adjustments commits or rolls back as one unit with the transaction row
// they belong to. State lives entirely in the store; there is no in-process
// cache, so multiple service instances can share one database.
type Ledger struct {
	store storage.Store
}

// New creates a Ledger reading and writing through the given store.
func New(store storage.Store) *Ledger {
	return &Ledger{store: store}
}

// Credit atomically increases a member's balance inside tx.
func (l *Ledger) Credit(ctx context.Context, tx storage.Tx, groupID, userID string, amount float64) error {
	return l.adjust(ctx, tx, groupID, userID, amount)
}

// Debit atomically decreases a member's balance inside tx.
func (l *Ledger) Debit(ctx context.Context, tx storage.Tx, groupID, userID string, amount float64) error {
	return l.adjust(ctx, tx, groupID, userID, -amount)
}

func (l *Ledger) adjust(ctx context.Context, tx storage.Tx, groupID, userID string, delta float64) error {
	ok, err := tx.AdjustBalance(ctx, groupID, userID, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust balance for %s: %w", userID, err)
	}
	if !ok {
		// A transaction should never reference a removed member. Record the
		// inconsistency but keep the ledger available.
		orphanAdjustments.Inc()
		slog.Warn("balance adjustment matched no active member",
			"group_id", groupID,
			"user_id", userID,
			"delta", delta,
		)
	}
	return nil
}

// Balances returns the current balance of every active member of the group.
func (l *Ledger) Balances(ctx context.Context, groupID string) ([]models.MemberBalance, error) {
	return l.store.ListBalances(ctx, groupID)
}
