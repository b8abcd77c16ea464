// Package privacy implements the opt-out filter that runs before any
// ranking or selection. A fully opted-out user must be indistinguishable,
// from resolved output alone, from a user who never existed: no rank gaps,
// no suppression markers.
package privacy

import (
	"github.com/impactboard/impactboard-go/internal/models"
)

// OptOutSet is the authoritative set of fully opted-out user ids for one
// org, loaded once per resolution pass.
type OptOutSet map[int64]struct{}

// NewOptOutSet builds a set from a slice of user ids
func NewOptOutSet(ids []int64) OptOutSet {
	s := make(OptOutSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether the user id is opted out
func (s OptOutSet) Contains(userID int64) bool {
	_, ok := s[userID]
	return ok
}

// Filter returns a new slice containing only entries whose user id is not
// in the opt-out set, preserving the relative order of the input. The
// input is never mutated. Callers re-sort by score afterward if needed;
// the contract here is only membership and order stability.
func Filter(stats []models.AggregatedStats, optedOut OptOutSet) []models.AggregatedStats {
	out := make([]models.AggregatedStats, 0, len(stats))
	for _, s := range stats {
		if optedOut.Contains(s.UserID) {
			continue
		}
		out = append(out, s)
	}
	return out
}
