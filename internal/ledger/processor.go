package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/models"
	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/notify"
	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/storage"
)

// Processor orchestrates the lifecycle of shared transactions: create, update,
// soft-delete and settlement recording. Every operation persists the
// transaction row and applies its balance effects in one storage transaction,
// so a failure partway leaves balances exactly as they were.
type Processor struct {
	store    storage.Store
	ledger   *Ledger
	notifier notify.Notifier
}

// NewProcessor creates a Processor. A nil notifier disables broadcasting.
func NewProcessor(store storage.Store, ledger *Ledger, notifier notify.Notifier) *Processor {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Processor{store: store, ledger: ledger, notifier: notifier}
}

// AddTransactionInput carries the caller-provided fields for a new
// transaction. Splits must already be resolved to decimal amounts (see
// ResolveSplits).
type AddTransactionInput struct {
	GroupID     string
	PaidBy      string
	Amount      float64
	SplitType   string
	Splits      map[string]float64
	Description string
	CreatedBy   string
}

// UpdateTransactionInput carries the replacement fields for an existing
// transaction. An empty PaidBy keeps the current payer.
type UpdateTransactionInput struct {
	Amount      float64
	SplitType   string
	Splits      map[string]float64
	Description string
	PaidBy      string
}

// delta is one member's balance change; positive credits, negative debits.
type delta struct {
	userID string
	amount float64
}

// effects returns the balance deltas a transaction applies: credit the payer
// by the full amount, then debit each split participant by their share.
// Participants are ordered by userID so concurrent writers touch rows in the
// same order.
func effects(txn *models.Transaction) []delta {
	userIDs := make([]string, 0, len(txn.Splits))
	for userID := range txn.Splits {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	out := make([]delta, 0, len(userIDs)+1)
	out = append(out, delta{userID: txn.PaidBy, amount: txn.Amount})
	for _, userID := range userIDs {
		out = append(out, delta{userID: userID, amount: -txn.Splits[userID]})
	}
	return out
}

// inverse flips deltas so a transaction's effects can be backed out exactly.
func inverse(ds []delta) []delta {
	out := make([]delta, len(ds))
	for i, d := range ds {
		out[i] = delta{userID: d.userID, amount: -d.amount}
	}
	return out
}

// AddTransaction validates the split, persists a new transaction and applies
// its balance effects atomically. Returns the persisted transaction.
func (p *Processor) AddTransaction(ctx context.Context, in AddTransactionInput) (*models.Transaction, error) {
	return p.add(ctx, in, false, notify.EventTransactionCreated)
}

// RecordSettlement records a payment from fromUserID to toUserID as a
// bookkeeping transaction: the recipient is the payer of a single-entry split
// owed by the sender, which moves both balances toward zero by amount.
func (p *Processor) RecordSettlement(ctx context.Context, groupID, fromUserID, toUserID string, amount float64, createdBy string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: got %.2f", ErrInvalidAmount, amount)
	}
	if amount <= Tolerance {
		return nil, ErrNoOp
	}
	in := AddTransactionInput{
		GroupID:   groupID,
		PaidBy:    toUserID,
		Amount:    amount,
		SplitType: models.SplitTypeCustom,
		Splits:    map[string]float64{fromUserID: amount},
		CreatedBy: createdBy,
	}
	return p.add(ctx, in, true, notify.EventSettlementRecorded)
}

func (p *Processor) add(ctx context.Context, in AddTransactionInput, settlement bool, event string) (*models.Transaction, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: got %.2f", ErrInvalidAmount, in.Amount)
	}
	if err := ValidateSplit(in.Amount, in.Splits); err != nil {
		return nil, err
	}

	group, err := p.store.GetGroup(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}
	if !group.Active {
		return nil, fmt.Errorf("group %s is deactivated: %w", in.GroupID, storage.ErrNotFound)
	}

	splitType := in.SplitType
	if splitType == "" {
		splitType = models.SplitTypeCustom
	}
	txn := &models.Transaction{
		GroupID:      in.GroupID,
		Amount:       in.Amount,
		PaidBy:       in.PaidBy,
		SplitType:    splitType,
		Splits:       in.Splits,
		Description:  in.Description,
		IsSettlement: settlement,
		CreatedBy:    in.CreatedBy,
	}

	err = p.store.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.InsertTransaction(ctx, txn); err != nil {
			return err
		}
		return p.apply(ctx, tx, txn.GroupID, effects(txn))
	})
	if err != nil {
		return nil, err
	}

	p.notify(ctx, txn.GroupID, event, txn)
	return txn, nil
}

// UpdateTransaction reverses the old effects, replaces the transaction and
// applies the new effects, all in one atomic unit. The existing record is
// read inside that unit, so the reversal always backs out the effects the
// row actually carries, not a snapshot a concurrent writer has since
// replaced. Validation failures leave balances untouched.
func (p *Processor) UpdateTransaction(ctx context.Context, transactionID string, in UpdateTransactionInput) (*models.Transaction, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: got %.2f", ErrInvalidAmount, in.Amount)
	}
	if err := ValidateSplit(in.Amount, in.Splits); err != nil {
		return nil, err
	}

	var updated *models.Transaction
	err := p.store.WithTx(ctx, func(tx storage.Tx) error {
		existing, err := tx.GetTransaction(ctx, transactionID)
		if err != nil {
			return err
		}

		paidBy := in.PaidBy
		if paidBy == "" {
			paidBy = existing.PaidBy
		}
		splitType := in.SplitType
		if splitType == "" {
			splitType = existing.SplitType
		}
		updated = &models.Transaction{
			ID:           existing.ID,
			GroupID:      existing.GroupID,
			Amount:       in.Amount,
			PaidBy:       paidBy,
			SplitType:    splitType,
			Splits:       in.Splits,
			Description:  in.Description,
			IsSettlement: existing.IsSettlement,
			CreatedBy:    existing.CreatedBy,
			CreatedAt:    existing.CreatedAt,
		}

		if err := p.apply(ctx, tx, existing.GroupID, inverse(effects(existing))); err != nil {
			return err
		}
		if err := tx.UpdateTransaction(ctx, updated); err != nil {
			return err
		}
		return p.apply(ctx, tx, updated.GroupID, effects(updated))
	})
	if err != nil {
		return nil, err
	}

	p.notify(ctx, updated.GroupID, notify.EventTransactionUpdated, updated)
	return updated, nil
}

// DeleteTransaction reverses the transaction's effects and marks it deleted,
// reading the record inside the same atomic unit as the reversal. A deleted
// transaction can never be un-deleted through this engine; record a new one
// instead.
func (p *Processor) DeleteTransaction(ctx context.Context, transactionID string) error {
	var groupID, deletedID string
	err := p.store.WithTx(ctx, func(tx storage.Tx) error {
		existing, err := tx.GetTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		groupID, deletedID = existing.GroupID, existing.ID

		if err := p.apply(ctx, tx, existing.GroupID, inverse(effects(existing))); err != nil {
			return err
		}
		return tx.MarkTransactionDeleted(ctx, existing.ID)
	})
	if err != nil {
		return err
	}

	p.notify(ctx, groupID, notify.EventTransactionDeleted, map[string]string{
		"transaction_id": deletedID,
	})
	return nil
}

func (p *Processor) apply(ctx context.Context, tx storage.Tx, groupID string, ds []delta) error {
	for _, d := range ds {
		var err error
		if d.amount >= 0 {
			err = p.ledger.Credit(ctx, tx, groupID, d.userID, d.amount)
		} else {
			err = p.ledger.Debit(ctx, tx, groupID, d.userID, -d.amount)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// notify is best effort: broadcast failures are logged, never propagated, and
// never roll anything back since they run after commit.
func (p *Processor) notify(ctx context.Context, groupID, event string, payload any) {
	if err := p.notifier.Notify(ctx, groupID, event, payload); err != nil {
		slog.Warn("notification failed", "group_id", groupID, "event", event, "error", err)
	}
}
