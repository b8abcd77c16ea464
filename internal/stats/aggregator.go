// Package stats folds normalized contribution events into the aggregated
// per-user, per-repo, and org-wide statistics the placeholder engine
// reads. One aggregation run rebuilds every window for one org.
package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/impactboard/impactboard-go/internal/models"
	"github.com/impactboard/impactboard-go/internal/storage"
	mstats "github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var allWindows = []models.Window{
	models.Window7d, models.Window30d, models.Window90d, models.WindowAllTime,
}

// Aggregator recomputes aggregated statistics from stored events
type Aggregator struct {
	store  storage.Store
	logger *logrus.Logger
}

// NewAggregator creates an Aggregator backed by the given store
func NewAggregator(store storage.Store, logger *logrus.Logger) *Aggregator {
	return &Aggregator{
		store:  store,
		logger: logger,
	}
}

// AggregateOrg rebuilds every window's statistics for one org as of now.
// Windows are independent, so they are computed concurrently; each window
// writes its own snapshot rows.
func (a *Aggregator) AggregateOrg(ctx context.Context, orgID int64, orgLogin string, now time.Time) error {
	a.logger.WithFields(logrus.Fields{
		"org": orgLogin,
	}).Info("aggregating org statistics")

	eg, egCtx := errgroup.WithContext(ctx)
	for _, window := range allWindows {
		window := window
		eg.Go(func() error {
			return a.aggregateWindow(egCtx, orgID, orgLogin, window, now)
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("aggregate org %s: %w", orgLogin, err)
	}
	return nil
}

// userAccumulator collects one user's activity while folding events
type userAccumulator struct {
	stats      models.AggregatedStats
	activeDays map[time.Time]struct{}
	repos      map[int64]struct{}
	firstSeen  time.Time
	lastSeen   time.Time
}

// repoAccumulator collects one repo's activity while folding events
type repoAccumulator struct {
	stats        models.RepoAggregatedStats
	contributors map[int64]struct{}
	lastSeen     time.Time
}

func (a *Aggregator) aggregateWindow(ctx context.Context, orgID int64, orgLogin string, window models.Window, now time.Time) error {
	since := time.Time{}
	if d := window.Duration(); d > 0 {
		since = now.Add(-d)
	}

	events, err := a.store.GetEvents(ctx, orgID, since)
	if err != nil {
		return fmt.Errorf("load events (%s): %w", window, err)
	}

	users := map[int64]*userAccumulator{}
	repos := map[int64]*repoAccumulator{}

	for _, event := range events {
		fold(users, repos, event, orgID, window)
	}

	userStats := finalizeUsers(users, now)
	repoStats := finalizeRepos(repos, now)
	summary := summarize(orgID, orgLogin, window, userStats, repoStats)

	if err := a.store.SaveUserStats(ctx, userStats); err != nil {
		return fmt.Errorf("save user stats (%s): %w", window, err)
	}
	if err := a.store.SaveRepoStats(ctx, repoStats); err != nil {
		return fmt.Errorf("save repo stats (%s): %w", window, err)
	}
	if err := a.store.SaveOrgSummary(ctx, summary); err != nil {
		return fmt.Errorf("save org summary (%s): %w", window, err)
	}

	a.logger.WithFields(logrus.Fields{
		"org":    orgLogin,
		"window": window,
		"users":  len(userStats),
		"repos":  len(repoStats),
	}).Debug("window aggregated")
	return nil
}

func fold(users map[int64]*userAccumulator, repos map[int64]*repoAccumulator, event models.ContributionEvent, orgID int64, window models.Window) {
	u, ok := users[event.UserID]
	if !ok {
		u = &userAccumulator{
			stats: models.AggregatedStats{
				UserID:    event.UserID,
				Login:     event.Login,
				AvatarURL: event.AvatarURL,
				OrgID:     orgID,
				Window:    window,
			},
			activeDays: map[time.Time]struct{}{},
			repos:      map[int64]struct{}{},
			firstSeen:  event.OccurredAt,
			lastSeen:   event.OccurredAt,
		}
		users[event.UserID] = u
	}

	r, ok := repos[event.RepoID]
	if !ok {
		r = &repoAccumulator{
			stats: models.RepoAggregatedStats{
				RepoID: event.RepoID,
				Name:   event.RepoName,
				OrgID:  orgID,
				Window: window,
			},
			contributors: map[int64]struct{}{},
			lastSeen:     event.OccurredAt,
		}
		repos[event.RepoID] = r
	}

	switch event.Kind {
	case models.EventCommit:
		u.stats.Commits++
		u.stats.LinesAdded += event.LinesAdded
		u.stats.LinesRemoved += event.LinesRemoved
		r.stats.Commits++
		r.stats.LinesAdded += event.LinesAdded
	case models.EventPRMerged:
		u.stats.PRsMerged++
		r.stats.PRs++
	case models.EventIssueOpened:
		u.stats.IssuesOpened++
		r.stats.Issues++
	case models.EventIssueClosed:
		u.stats.IssuesClosed++
	}

	raw, weighted := eventScore(event)
	u.stats.RawScore += raw
	u.stats.WeightedScore += weighted

	u.activeDays[dayKey(event.OccurredAt)] = struct{}{}
	u.repos[event.RepoID] = struct{}{}
	r.contributors[event.UserID] = struct{}{}

	if event.OccurredAt.Before(u.firstSeen) {
		u.firstSeen = event.OccurredAt
	}
	if event.OccurredAt.After(u.lastSeen) {
		u.lastSeen = event.OccurredAt
	}
	if event.OccurredAt.After(r.lastSeen) {
		r.lastSeen = event.OccurredAt
	}
}

// finalizeUsers turns accumulators into rows, assigning streaks and rank
// tiers. Window bounds carry the user's first and last activity so the
// NEW and ACTIVE selectors have per-user dates to sort by.
func finalizeUsers(users map[int64]*userAccumulator, now time.Time) []models.AggregatedStats {
	out := make([]models.AggregatedStats, 0, len(users))
	for _, u := range users {
		u.stats.ActiveDays = len(u.activeDays)
		u.stats.RepoCount = len(u.repos)
		u.stats.WindowStart = u.firstSeen
		u.stats.WindowEnd = u.lastSeen
		u.stats.CurrentStreak, u.stats.LongestStreak = streaks(u.activeDays, now)
		out = append(out, u.stats)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WeightedScore != out[j].WeightedScore {
			return out[i].WeightedScore > out[j].WeightedScore
		}
		return out[i].Login < out[j].Login
	})
	for i := range out {
		out[i].RankTier = tierFor(i+1, len(out))
	}
	return out
}

func finalizeRepos(repos map[int64]*repoAccumulator, now time.Time) []models.RepoAggregatedStats {
	out := make([]models.RepoAggregatedStats, 0, len(repos))
	for _, r := range repos {
		r.stats.Contributors = len(r.contributors)
		if now.Sub(r.lastSeen) > 14*24*time.Hour {
			r.stats.Status = models.RepoStatusQuiet
		} else {
			r.stats.Status = models.RepoStatusActive
		}
		out = append(out, r.stats)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Commits != out[j].Commits {
			return out[i].Commits > out[j].Commits
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// summarize builds the org-wide totals row. The health score blends how
// broadly the org is active (mean active days) with how evenly work is
// spread (median share of the total weighted score), scaled to 0-100.
func summarize(orgID int64, orgLogin string, window models.Window, userStats []models.AggregatedStats, repoStats []models.RepoAggregatedStats) *models.OrgStatsSummary {
	summary := &models.OrgStatsSummary{
		OrgID:    orgID,
		OrgLogin: orgLogin,
		Window:   window,
	}

	var totalScore float64
	scores := make([]float64, 0, len(userStats))
	activeDays := make([]float64, 0, len(userStats))
	for _, u := range userStats {
		summary.TotalCommits += u.Commits
		summary.TotalPRs += u.PRsMerged
		summary.TotalLinesAdded += u.LinesAdded
		totalScore += u.WeightedScore
		scores = append(scores, u.WeightedScore)
		activeDays = append(activeDays, float64(u.ActiveDays))
	}
	summary.ActiveUsers = len(userStats)
	summary.TotalRepos = len(repoStats)

	if len(userStats) == 0 || totalScore == 0 {
		return summary
	}

	meanDays, err := mstats.Mean(activeDays)
	if err != nil {
		meanDays = 0
	}
	medianScore, err := mstats.Median(scores)
	if err != nil {
		medianScore = 0
	}

	// Mean active days saturate at 20/window; an even score spread puts
	// the median near total/n.
	activity := meanDays / 20
	if activity > 1 {
		activity = 1
	}
	balance := medianScore * float64(len(scores)) / totalScore
	if balance > 1 {
		balance = 1
	}

	summary.HealthScore = 100 * (0.6*activity + 0.4*balance)
	return summary
}
