package stats

import (
	"github.com/impactboard/impactboard-go/internal/models"
)

// Scoring weights per event kind. The weighted score drives TOP/RANK
// ordering, so the weights are fixed facts of the system rather than
// tunables.
const (
	commitWeight      = 3.0
	prMergedWeight    = 8.0
	issueOpenedWeight = 1.0
	issueClosedWeight = 2.0
	lineWeight        = 0.01

	// Anti-gaming cap: line counts beyond this per event do not score.
	// A vendored-dependency commit should not outweigh a month of work.
	maxScoredLinesPerEvent = 2000
)

// scoredLines caps the line delta of a single event for scoring purposes
func scoredLines(event models.ContributionEvent) int {
	lines := event.LinesAdded + event.LinesRemoved
	if lines > maxScoredLinesPerEvent {
		return maxScoredLinesPerEvent
	}
	return lines
}

// eventScore returns the raw and weighted contribution of one event.
// Raw counts lines uncapped; weighted applies the anti-gaming cap.
func eventScore(event models.ContributionEvent) (raw, weighted float64) {
	var base float64
	switch event.Kind {
	case models.EventCommit:
		base = commitWeight
	case models.EventPRMerged:
		base = prMergedWeight
	case models.EventIssueOpened:
		base = issueOpenedWeight
	case models.EventIssueClosed:
		base = issueClosedWeight
	default:
		return 0, 0
	}
	raw = base + float64(event.LinesAdded+event.LinesRemoved)*lineWeight
	weighted = base + float64(scoredLines(event))*lineWeight
	return raw, weighted
}

// tierFor maps a 1-indexed rank position within total ranked users to a
// rank tier band
func tierFor(rank, total int) models.RankTier {
	if total <= 0 || rank <= 0 || rank > total {
		return models.RankTierBronze
	}
	p := float64(rank) / float64(total)
	switch {
	case p <= 0.05:
		return models.RankTierDiamond
	case p <= 0.15:
		return models.RankTierPlatinum
	case p <= 0.35:
		return models.RankTierGold
	case p <= 0.65:
		return models.RankTierSilver
	}
	return models.RankTierBronze
}
