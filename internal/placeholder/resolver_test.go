package placeholder

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/impactboard/impactboard-go/internal/models"
	"github.com/impactboard/impactboard-go/internal/policy"
	"github.com/impactboard/impactboard-go/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider serves canned snapshots and counts fetches so tests can
// assert the once-per-window guarantee.
type fakeProvider struct {
	users    map[models.Window][]models.AggregatedStats
	repos    map[models.Window][]models.RepoAggregatedStats
	summary  map[models.Window]*models.OrgStatsSummary
	optedOut []int64

	userFetches   int
	optOutFetches int
	err           error
}

func (f *fakeProvider) GetOrgStats(_ context.Context, _ int64, w models.Window) ([]models.AggregatedStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.userFetches++
	return f.users[w], nil
}

func (f *fakeProvider) GetRepoStats(_ context.Context, _ int64, w models.Window) ([]models.RepoAggregatedStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.repos[w], nil
}

func (f *fakeProvider) GetOrgSummary(_ context.Context, _ int64, w models.Window) (*models.OrgStatsSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	sum, ok := f.summary[w]
	if !ok {
		return &models.OrgStatsSummary{}, nil
	}
	return sum, nil
}

func (f *fakeProvider) GetOptedOutUserIDs(_ context.Context, _ int64) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.optOutFetches++
	return f.optedOut, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestProvider() *fakeProvider {
	return &fakeProvider{
		users: map[models.Window][]models.AggregatedStats{
			models.Window30d: {
				{UserID: 1, Login: "alice", WeightedScore: 300, Commits: 90, CurrentStreak: 12, RankTier: models.RankTierDiamond},
				{UserID: 2, Login: "bob", WeightedScore: 200, Commits: 60, CurrentStreak: 5, RankTier: models.RankTierGold},
				{UserID: 3, Login: "carol", WeightedScore: 100, Commits: 30, CurrentStreak: 2, RankTier: models.RankTierSilver},
			},
			models.Window7d: {
				{UserID: 2, Login: "bob", WeightedScore: 80, Commits: 15, RankTier: models.RankTierGold},
			},
		},
		repos: map[models.Window][]models.RepoAggregatedStats{
			models.Window30d: {
				{RepoID: 10, Name: "api", Commits: 120, Contributors: 5, Status: models.RepoStatusActive},
				{RepoID: 11, Name: "web", Commits: 80, Contributors: 3, Status: models.RepoStatusQuiet},
			},
		},
		summary: map[models.Window]*models.OrgStatsSummary{
			models.Window30d: {ActiveUsers: 3, TotalCommits: 180, TotalPRs: 24, TotalLinesAdded: 50400, TotalRepos: 2, HealthScore: 81.2},
		},
	}
}

func resolveText(t *testing.T, f *fakeProvider, pol *policy.Policy, text string, assets AssetContext) string {
	t.Helper()
	r := NewResolver(f, f, quietLogger())
	out, err := r.Resolve(context.Background(), 99, "acme", text, pol, assets)
	require.NoError(t, err)
	return out
}

func TestResolve_BasicSubstitution(t *testing.T) {
	out := resolveText(t, newTestProvider(), policy.Default(),
		"Top contributor: {{IMPACTBOARD:USER.TOP(1).username}} with {{IMPACTBOARD:USER.TOP(1).commits}} commits", nil)
	assert.Equal(t, "Top contributor: @alice with 90 commits", out)
}

func TestResolve_PrivacyNoVisibleGaps(t *testing.T) {
	f := newTestProvider()
	// The true TOP(1) and TOP(2) are both opted out; the first public
	// user must surface as TOP(1) with no rank-shift marker.
	f.optedOut = []int64{1, 2}
	out := resolveText(t, f, policy.Default(), "{{IMPACTBOARD:USER.TOP(1).username}}", nil)
	assert.Equal(t, "@carol", out)
}

func TestResolve_OptedOutUserInvisibleToUsername(t *testing.T) {
	f := newTestProvider()
	f.optedOut = []int64{2}
	out := resolveText(t, f, policy.Default(),
		"{{IMPACTBOARD:USER.USERNAME(bob).commits | fallback=hidden}}", nil)
	assert.Equal(t, "hidden", out)
}

func TestResolve_ExhaustionFallback(t *testing.T) {
	f := newTestProvider()
	f.optedOut = []int64{3}
	// Two public users remain; TOP(3) resolves to the fallback, not a
	// crash and not the placeholder literal.
	out := resolveText(t, f, policy.Default(),
		"{{IMPACTBOARD:USER.TOP(3).username | fallback=—}}", nil)
	assert.Equal(t, "—", out)

	out = resolveText(t, f, policy.Default(), "{{IMPACTBOARD:USER.TOP(3).username}}", nil)
	assert.Equal(t, "", out)
}

func TestResolve_FieldLevelHide(t *testing.T) {
	pol := policy.Default()
	pol.PublicUsers = map[string]policy.UserVisibility{
		"alice": {Hide: []string{"rank", "streak"}},
	}
	f := newTestProvider()

	out := resolveText(t, f, pol, "{{IMPACTBOARD:USER.TOP(1).username}}", nil)
	assert.Equal(t, "@alice", out, "username stays visible")

	out = resolveText(t, f, pol, "{{IMPACTBOARD:USER.TOP(1).rank | fallback=n/a}}", nil)
	assert.Equal(t, "n/a", out, "hidden field resolves to fallback")

	out = resolveText(t, f, pol, "{{IMPACTBOARD:USER.TOP(2).rank}}", nil)
	assert.Equal(t, "Gold", out, "hide list only applies to the declared user")
}

func TestResolve_UnknownFieldFallsBack(t *testing.T) {
	out := resolveText(t, newTestProvider(), policy.Default(),
		"before {{IMPACTBOARD:USER.TOP(1).ai_summary | fallback=?}} after", nil)
	assert.Equal(t, "before ? after", out)
}

func TestResolve_PlaceholderCapLeavesLiteralText(t *testing.T) {
	pol := policy.Default()
	pol.MaxPlaceholders = 2
	text := "{{IMPACTBOARD:USER.TOP(1).username}} {{IMPACTBOARD:USER.TOP(2).username}} {{IMPACTBOARD:USER.TOP(3).username}}"
	out := resolveText(t, newTestProvider(), pol, text, nil)
	assert.Equal(t, "@alice @bob {{IMPACTBOARD:USER.TOP(3).username}}", out)
}

func TestResolve_ModeGate(t *testing.T) {
	for _, mode := range []policy.Mode{policy.ModeAssetsOnly, policy.ModeTemplate} {
		pol := policy.Default()
		pol.Mode = mode
		text := "{{IMPACTBOARD:USER.TOP(1).username}} untouched"
		out := resolveText(t, newTestProvider(), pol, text, nil)
		assert.Equal(t, text, out, "mode %s must not resolve anything", mode)
	}
}

func TestResolve_TopMaxBound(t *testing.T) {
	pol := policy.Default()
	pol.TopMax = 2
	out := resolveText(t, newTestProvider(), pol,
		"{{IMPACTBOARD:USER.TOP(3).username | fallback=out-of-bounds}}", nil)
	assert.Equal(t, "out-of-bounds", out)

	// USERNAME is not bounded by top_max.
	out = resolveText(t, newTestProvider(), pol, "{{IMPACTBOARD:USER.USERNAME(carol).username}}", nil)
	assert.Equal(t, "@carol", out)
}

func TestResolve_EntityAllowList(t *testing.T) {
	pol := policy.Default()
	pol.Entities = []policy.Entity{policy.EntityOrg}

	out := resolveText(t, newTestProvider(), pol,
		"{{IMPACTBOARD:USER.TOP(1).username | fallback=x}} {{IMPACTBOARD:ORG.total_commits}}", nil)
	assert.Equal(t, "x 180", out)

	// SVG is implicitly allowed regardless of the entity list.
	assets := AssetContext{"leaderboard": "assets/lb.svg"}
	out = resolveText(t, newTestProvider(), pol, "{{IMPACTBOARD:SVG.leaderboard}}", assets)
	assert.Equal(t, "assets/lb.svg", out)
}

func TestResolve_WindowOption(t *testing.T) {
	out := resolveText(t, newTestProvider(), policy.Default(),
		"{{IMPACTBOARD:USER.TOP(1).commits | window=7d}}", nil)
	assert.Equal(t, "15", out)

	// Disallowed window falls back to the policy default window.
	pol := policy.Default()
	pol.AllowedWindows = []models.Window{models.Window30d}
	out = resolveText(t, newTestProvider(), pol,
		"{{IMPACTBOARD:USER.TOP(1).commits | window=7d}}", nil)
	assert.Equal(t, "90", out)
}

func TestResolve_SnapshotFetchedOncePerWindow(t *testing.T) {
	f := newTestProvider()
	text := "{{IMPACTBOARD:USER.TOP(1).username}} {{IMPACTBOARD:USER.TOP(2).username}}" +
		" {{IMPACTBOARD:USER.TOP(1).commits | window=7d}} {{IMPACTBOARD:USER.USERNAME(carol).streak}}"
	resolveText(t, f, policy.Default(), text, nil)
	assert.Equal(t, 2, f.userFetches, "one fetch per distinct window")
	assert.Equal(t, 1, f.optOutFetches, "opt-out set loaded once per pass")
}

func TestResolve_Determinism(t *testing.T) {
	text := "{{IMPACTBOARD:USER.TOP(1).username}} / {{IMPACTBOARD:REPO.TOP(1).name}} / {{IMPACTBOARD:ORG.health_score}}"
	first := resolveText(t, newTestProvider(), policy.Default(), text, nil)
	second := resolveText(t, newTestProvider(), policy.Default(), text, nil)
	assert.Equal(t, first, second)
	assert.Equal(t, "@alice / api / 81", first)
}

func TestResolve_DuplicatePlaceholdersGetSameValue(t *testing.T) {
	out := resolveText(t, newTestProvider(), policy.Default(),
		"{{IMPACTBOARD:USER.TOP(1).commits}}+{{IMPACTBOARD:USER.TOP(1).commits}}", nil)
	assert.Equal(t, "90+90", out)
}

func TestResolve_FormatOption(t *testing.T) {
	out := resolveText(t, newTestProvider(), policy.Default(),
		"{{IMPACTBOARD:ORG.total_loc_added | format=number}} {{IMPACTBOARD:USER.TOP(1).streak | format=fire}}", nil)
	assert.Equal(t, "50,400 12 \U0001F525", out)
}

func TestResolve_NonPlaceholderTextPreserved(t *testing.T) {
	text := "# Title\n\nplain {text} with {{braces}} and {{IMPACTBOARD:USER.TOP(1).username}}\n"
	out := resolveText(t, newTestProvider(), policy.Default(), text, nil)
	assert.Equal(t, "# Title\n\nplain {text} with {{braces}} and @alice\n", out)
}

func TestResolve_ProviderErrorPropagates(t *testing.T) {
	f := newTestProvider()
	f.err = errors.New("connection refused")
	r := NewResolver(f, f, quietLogger())
	_, err := r.Resolve(context.Background(), 99, "acme", "{{IMPACTBOARD:USER.TOP(1).username}}", policy.Default(), nil)
	require.Error(t, err, "a broken provider is a hard failure, not a fallback")
}

func TestResolve_SVGThemed(t *testing.T) {
	assets := AssetContext{
		"leaderboard_light": "assets/lb-light.svg",
		"leaderboard_dark":  "assets/lb-dark.svg",
	}
	out := resolveText(t, newTestProvider(), policy.Default(),
		"{{IMPACTBOARD:SVG.leaderboard_themed}}", assets)
	assert.Contains(t, out, "prefers-color-scheme: dark")
	assert.Contains(t, out, "assets/lb-dark.svg")
	assert.Contains(t, out, "assets/lb-light.svg")

	out = resolveText(t, newTestProvider(), policy.Default(),
		"{{IMPACTBOARD:SVG.heatmap | fallback=(pending)}}", assets)
	assert.Equal(t, "(pending)", out)
}

// missingSummaryProvider reports no stored summary for any window
type missingSummaryProvider struct {
	*fakeProvider
}

func (m *missingSummaryProvider) GetOrgSummary(context.Context, int64, models.Window) (*models.OrgStatsSummary, error) {
	return nil, storage.ErrNotFound
}

func TestResolve_MissingSummaryFallsBack(t *testing.T) {
	f := &missingSummaryProvider{fakeProvider: newTestProvider()}
	r := NewResolver(f, f, quietLogger())
	out, err := r.Resolve(context.Background(), 99, "acme",
		"{{IMPACTBOARD:ORG.total_commits | fallback=n/a}}", policy.Default(), nil)
	require.NoError(t, err, "an absent summary is data absence, not a provider failure")
	assert.Equal(t, "n/a", out)
}
