package placeholder

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/impactboard/impactboard-go/internal/models"
)

// Selector tokens for USER and REPO entities
const (
	SelectorTop      = "TOP"
	SelectorRank     = "RANK"
	SelectorUsername = "USERNAME"
	SelectorNew      = "NEW"
	SelectorActive   = "ACTIVE"
	SelectorName     = "NAME"
)

var selectorArgRe = regexp.MustCompile(`^([A-Z][A-Z_]*)\(([^()]*)\)$`)

// parsedSelector is the decomposed form of a selector expression
type parsedSelector struct {
	token  string
	arg    string
	n      int
	hasN   bool
	hasArg bool
}

// parseSelector splits "TOP(3)" into token and argument. A selector with
// no parentheses yields just the token. Returns false for text that is
// not a selector shape at all.
func parseSelector(raw string) (parsedSelector, bool) {
	if m := selectorArgRe.FindStringSubmatch(raw); m != nil {
		p := parsedSelector{token: m[1], arg: m[2], hasArg: true}
		if n, err := strconv.Atoi(m[2]); err == nil {
			p.n = n
			p.hasN = true
		}
		return p, true
	}
	return parsedSelector{token: raw}, true
}

// SelectUser picks one entry from a privacy-filtered stats list. The list
// is treated as an immutable snapshot; positional selectors index into
// freshly sorted copies with stable tie-breaking, so identical inputs
// always pick the same entry. Out-of-range or unmatched selectors return
// false, never an error.
func SelectUser(list []models.AggregatedStats, sel parsedSelector) (models.AggregatedStats, bool) {
	switch sel.token {
	case SelectorTop, SelectorRank:
		// RANK is a readability alias of TOP: both index the same
		// score-sorted filtered list.
		return nthUser(byWeightedScore(list), sel)
	case SelectorUsername:
		if !sel.hasArg {
			return models.AggregatedStats{}, false
		}
		for _, s := range list {
			if s.Login == sel.arg {
				return s, true
			}
		}
		return models.AggregatedStats{}, false
	case SelectorNew:
		return nthUser(byWindowStartDesc(list), sel)
	case SelectorActive:
		return nthUser(byWindowEndDesc(list), sel)
	}
	return models.AggregatedStats{}, false
}

// SelectRepo picks one entry from a repo stats list, ordered by total
// commits descending for positional selectors.
func SelectRepo(list []models.RepoAggregatedStats, sel parsedSelector) (models.RepoAggregatedStats, bool) {
	switch sel.token {
	case SelectorTop, SelectorRank:
		if !sel.hasN || sel.n <= 0 || sel.n > len(list) {
			return models.RepoAggregatedStats{}, false
		}
		sorted := make([]models.RepoAggregatedStats, len(list))
		copy(sorted, list)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Commits > sorted[j].Commits
		})
		return sorted[sel.n-1], true
	case SelectorName:
		if !sel.hasArg {
			return models.RepoAggregatedStats{}, false
		}
		for _, r := range list {
			if r.Name == sel.arg {
				return r, true
			}
		}
		return models.RepoAggregatedStats{}, false
	}
	return models.RepoAggregatedStats{}, false
}

func nthUser(sorted []models.AggregatedStats, sel parsedSelector) (models.AggregatedStats, bool) {
	if !sel.hasN || sel.n <= 0 || sel.n > len(sorted) {
		return models.AggregatedStats{}, false
	}
	return sorted[sel.n-1], true
}

func byWeightedScore(list []models.AggregatedStats) []models.AggregatedStats {
	sorted := make([]models.AggregatedStats, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].WeightedScore > sorted[j].WeightedScore
	})
	return sorted
}

func byWindowStartDesc(list []models.AggregatedStats) []models.AggregatedStats {
	sorted := make([]models.AggregatedStats, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].WindowStart.After(sorted[j].WindowStart)
	})
	return sorted
}

func byWindowEndDesc(list []models.AggregatedStats) []models.AggregatedStats {
	sorted := make([]models.AggregatedStats, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].WindowEnd.After(sorted[j].WindowEnd)
	})
	return sorted
}
