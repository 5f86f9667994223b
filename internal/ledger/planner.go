package ledger

import (
	"context"
	"math"
	"sort"

	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/models"
)

// Planner computes settlement suggestions from current balances. It is
// read-only and may run concurrently with writes; results are snapshots that
// go stale as soon as another transaction is recorded, so they are recomputed
// on every request and never cached.
type Planner struct {
	ledger *Ledger
}

// NewPlanner creates a Planner reading balances through the given ledger.
func NewPlanner(ledger *Ledger) *Planner {
	return &Planner{ledger: ledger}
}

// Suggestions returns a payment plan that zeroes out the group's balances.
func (p *Planner) Suggestions(ctx context.Context, groupID string) ([]models.SettlementSuggestion, error) {
	balances, err := p.ledger.Balances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return PlanTransfers(balances), nil
}

// PlanTransfers matches debtors against creditors with a greedy two-pointer
// sweep: debtors sorted most-negative first, creditors largest first, each
// step transferring the smaller of the two outstanding amounts. Every step
// fully settles at least one side (both on an exact tie), so n members with
// nonzero balances need at most n-1 transfers. Amounts at or below the
// rounding tolerance are treated as settled.
func PlanTransfers(balances []models.MemberBalance) []models.SettlementSuggestion {
	var debtors, creditors []models.MemberBalance
	for _, b := range balances {
		switch {
		case b.Balance < -Tolerance:
			debtors = append(debtors, b)
		case b.Balance > Tolerance:
			creditors = append(creditors, b)
		}
	}

	// Secondary userID ordering keeps the plan deterministic on equal amounts.
	sort.Slice(debtors, func(i, j int) bool {
		if debtors[i].Balance != debtors[j].Balance {
			return debtors[i].Balance < debtors[j].Balance
		}
		return debtors[i].UserID < debtors[j].UserID
	})
	sort.Slice(creditors, func(i, j int) bool {
		if creditors[i].Balance != creditors[j].Balance {
			return creditors[i].Balance > creditors[j].Balance
		}
		return creditors[i].UserID < creditors[j].UserID
	})

	var plan []models.SettlementSuggestion
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := math.Min(-debtors[i].Balance, creditors[j].Balance)
		if amount > Tolerance {
			plan = append(plan, models.SettlementSuggestion{
				From:   debtors[i].UserID,
				To:     creditors[j].UserID,
				Amount: amount,
			})
		}

		debtors[i].Balance += amount
		creditors[j].Balance -= amount

		if -debtors[i].Balance < Tolerance {
			i++
		}
		if creditors[j].Balance < Tolerance {
			j++
		}
	}
	return plan
}
