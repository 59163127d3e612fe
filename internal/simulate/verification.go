package simulate

import (
	"fmt"

	"github.com/okian/turforacle/internal/adapters/repository"
)

// VerifyLeaderboard checks that entries are ordered by value with
// consecutive dense ranks starting at 1.
func VerifyLeaderboard(entries []repository.Entry) error {
	for i, e := range entries {
		if i == 0 {
			if e.Rank != 1 {
				return fmt.Errorf("%w: first entry has rank %d", ErrVerification, e.Rank)
			}
			continue
		}
		prev := entries[i-1]
		switch {
		case e.Value > prev.Value:
			return fmt.Errorf("%w: token %d (%.2f) ranked below token %d (%.2f)", ErrVerification, e.TokenID, e.Value, prev.TokenID, prev.Value)
		case e.Value == prev.Value && e.Rank != prev.Rank:
			return fmt.Errorf("%w: tied tokens %d and %d have ranks %d and %d", ErrVerification, prev.TokenID, e.TokenID, prev.Rank, e.Rank)
		case e.Value < prev.Value && e.Rank != prev.Rank+1:
			return fmt.Errorf("%w: rank jumps from %d to %d", ErrVerification, prev.Rank, e.Rank)
		}
	}
	return nil
}

// verifyDedupe checks that every replay was recognised.
func verifyDedupe(stats *Stats, replays int) error {
	if stats.EventsFailed > 0 || stats.EventsRejected > 0 {
		return nil
	}
	if stats.EventsDuplicate != replays {
		return fmt.Errorf("%w: %d replays but %d duplicates", ErrVerification, replays, stats.EventsDuplicate)
	}
	return nil
}
