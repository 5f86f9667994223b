package ledger

import (
	"math"
	"testing"

	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/models"
)

func TestPlanTransfers(t *testing.T) {
	tests := []struct {
		name         string
		balances     []models.MemberBalance
		wantCount    int
		maxTransfers int
	}{
		{
			name: "two debtors two creditors",
			balances: []models.MemberBalance{
				{UserID: "a", Balance: -30},
				{UserID: "b", Balance: -20},
				{UserID: "c", Balance: 10},
				{UserID: "d", Balance: 40},
			},
			wantCount:    3,
			maxTransfers: 3,
		},
		{
			name: "single pair",
			balances: []models.MemberBalance{
				{UserID: "a", Balance: -40},
				{UserID: "b", Balance: 40},
			},
			wantCount:    1,
			maxTransfers: 1,
		},
		{
			name: "exact ties advance both sides",
			balances: []models.MemberBalance{
				{UserID: "a", Balance: -10},
				{UserID: "b", Balance: -5},
				{UserID: "c", Balance: 10},
				{UserID: "d", Balance: 5},
			},
			wantCount:    2,
			maxTransfers: 3,
		},
		{
			name: "all settled yields empty plan",
			balances: []models.MemberBalance{
				{UserID: "a", Balance: 0},
				{UserID: "b", Balance: 0.004},
				{UserID: "c", Balance: -0.004},
			},
			wantCount:    0,
			maxTransfers: 0,
		},
		{
			name: "scenario after partial settlement",
			balances: []models.MemberBalance{
				{UserID: "alice", Balance: 40},
				{UserID: "bob", Balance: 0},
				{UserID: "carol", Balance: -40},
			},
			wantCount:    1,
			maxTransfers: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanTransfers(tt.balances)

			if len(plan) != tt.wantCount {
				t.Errorf("got %d transfers, want %d: %+v", len(plan), tt.wantCount, plan)
			}
			if len(plan) > tt.maxTransfers {
				t.Errorf("plan exceeds n-1 bound: %d > %d", len(plan), tt.maxTransfers)
			}

			// Completeness: money routed away from each debtor matches their
			// debt, and money routed into each creditor matches their credit.
			outgoing := make(map[string]float64)
			incoming := make(map[string]float64)
			for _, s := range plan {
				if s.Amount <= 0 {
					t.Errorf("non-positive transfer amount: %+v", s)
				}
				outgoing[s.From] += s.Amount
				incoming[s.To] += s.Amount
			}
			for _, b := range tt.balances {
				switch {
				case b.Balance < -Tolerance:
					if math.Abs(outgoing[b.UserID]-(-b.Balance)) > Tolerance {
						t.Errorf("debtor %s pays %.2f, owes %.2f", b.UserID, outgoing[b.UserID], -b.Balance)
					}
				case b.Balance > Tolerance:
					if math.Abs(incoming[b.UserID]-b.Balance) > Tolerance {
						t.Errorf("creditor %s receives %.2f, is owed %.2f", b.UserID, incoming[b.UserID], b.Balance)
					}
				default:
					if outgoing[b.UserID] != 0 || incoming[b.UserID] != 0 {
						t.Errorf("settled member %s appears in plan", b.UserID)
					}
				}
			}
		})
	}
}

func TestPlanTransfersIsDeterministic(t *testing.T) {
	balances := []models.MemberBalance{
		{UserID: "a", Balance: -25},
		{UserID: "b", Balance: -25},
		{UserID: "c", Balance: 25},
		{UserID: "d", Balance: 25},
	}

	first := PlanTransfers(balances)
	for i := 0; i < 10; i++ {
		again := PlanTransfers([]models.MemberBalance{
			{UserID: "a", Balance: -25},
			{UserID: "b", Balance: -25},
			{UserID: "c", Balance: 25},
			{UserID: "d", Balance: 25},
		})
		if len(again) != len(first) {
			t.Fatalf("plan length changed between runs: %d vs %d", len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("plan changed between runs: %+v vs %+v", again[j], first[j])
			}
		}
	}
}
