package ledger

import (
	"errors"
	"math"
	"testing"
)

func TestValidateSplit(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		splits  map[string]float64
		wantErr bool
	}{
		{
			name:   "exact sum",
			amount: 120.0,
			splits: map[string]float64{"alice": 40.0, "bob": 40.0, "carol": 40.0},
		},
		{
			name:   "within tolerance under",
			amount: 100.0,
			splits: map[string]float64{"alice": 33.33, "bob": 33.33, "carol": 33.33},
		},
		{
			name:   "off by exactly the tolerance",
			amount: 100.0,
			splits: map[string]float64{"alice": 50.0, "bob": 49.99},
		},
		{
			name:    "off by more than tolerance",
			amount:  100.0,
			splits:  map[string]float64{"alice": 50.0, "bob": 49.0},
			wantErr: true,
		},
		{
			name:    "empty splits against positive amount",
			amount:  10.0,
			splits:  map[string]float64{},
			wantErr: true,
		},
		{
			name:   "single entry settlement shape",
			amount: 40.0,
			splits: map[string]float64{"bob": 40.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSplit(tt.amount, tt.splits)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSplit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrSplitMismatch) {
				t.Errorf("expected ErrSplitMismatch, got %v", err)
			}
		})
	}
}

func TestResolveSplits(t *testing.T) {
	tests := []struct {
		name      string
		splitType string
		amount    float64
		splits    map[string]float64
		want      map[string]float64
		wantErr   bool
	}{
		{
			name:      "custom passes through",
			splitType: "custom",
			amount:    50.0,
			splits:    map[string]float64{"alice": 30.0, "bob": 20.0},
			want:      map[string]float64{"alice": 30.0, "bob": 20.0},
		},
		{
			name:      "empty type treated as custom",
			splitType: "",
			amount:    50.0,
			splits:    map[string]float64{"alice": 50.0},
			want:      map[string]float64{"alice": 50.0},
		},
		{
			name:      "equal split divides amount",
			splitType: "equal",
			amount:    120.0,
			splits:    map[string]float64{"alice": 0, "bob": 0, "carol": 0},
			want:      map[string]float64{"alice": 40.0, "bob": 40.0, "carol": 40.0},
		},
		{
			name:      "equal split rounds to cents",
			splitType: "equal",
			amount:    100.0,
			splits:    map[string]float64{"alice": 0, "bob": 0, "carol": 0},
			want:      map[string]float64{"alice": 33.33, "bob": 33.33, "carol": 33.33},
		},
		{
			name:      "percentage scales to amounts",
			splitType: "percentage",
			amount:    200.0,
			splits:    map[string]float64{"alice": 25, "bob": 75},
			want:      map[string]float64{"alice": 50.0, "bob": 150.0},
		},
		{
			name:      "shares scale proportionally",
			splitType: "shares",
			amount:    90.0,
			splits:    map[string]float64{"alice": 1, "bob": 2},
			want:      map[string]float64{"alice": 30.0, "bob": 60.0},
		},
		{
			name:      "shares summing to zero rejected",
			splitType: "shares",
			amount:    90.0,
			splits:    map[string]float64{"alice": 0, "bob": 0},
			wantErr:   true,
		},
		{
			name:      "no participants rejected",
			splitType: "equal",
			amount:    90.0,
			splits:    map[string]float64{},
			wantErr:   true,
		},
		{
			name:      "unknown type rejected",
			splitType: "fibonacci",
			amount:    90.0,
			splits:    map[string]float64{"alice": 1},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveSplits(tt.splitType, tt.amount, tt.splits)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveSplits() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.want))
			}
			for userID, want := range tt.want {
				if math.Abs(got[userID]-want) > 0.001 {
					t.Errorf("%s share = %v, want %v", userID, got[userID], want)
				}
			}
		})
	}
}
