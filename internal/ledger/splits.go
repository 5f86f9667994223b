package ledger

import (
	"fmt"
	"math"

	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/models"
)

// ResolveSplits turns a caller-provided allocation into the decimal-share map
// the ledger operates on. Custom splits pass through unchanged; equal splits
// divide the amount across the given participants (values in the input map are
// ignored); percentage and share based splits are scaled to amounts. Shares
// are rounded to cents, which the validation tolerance absorbs.
func ResolveSplits(splitType string, amount float64, splits map[string]float64) (map[string]float64, error) {
	if len(splits) == 0 {
		return nil, fmt.Errorf("%w: no split participants", ErrSplitMismatch)
	}

	switch splitType {
	case "", models.SplitTypeCustom:
		return splits, nil

	case models.SplitTypeEqual:
		share := roundToCents(amount / float64(len(splits)))
		resolved := make(map[string]float64, len(splits))
		for userID := range splits {
			resolved[userID] = share
		}
		return resolved, nil

	case models.SplitTypePercentage:
		resolved := make(map[string]float64, len(splits))
		for userID, pct := range splits {
			resolved[userID] = roundToCents(amount * pct / 100)
		}
		return resolved, nil

	case models.SplitTypeShares:
		var total float64
		for _, units := range splits {
			total += units
		}
		if total <= 0 {
			return nil, fmt.Errorf("%w: share units sum to zero", ErrSplitMismatch)
		}
		resolved := make(map[string]float64, len(splits))
		for userID, units := range splits {
			resolved[userID] = roundToCents(amount * units / total)
		}
		return resolved, nil

	default:
		return nil, fmt.Errorf("unknown split type %q", splitType)
	}
}

func roundToCents(v float64) float64 {
	return math.Round(v*100) / 100
}
