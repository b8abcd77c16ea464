package models

import (
	"time"
)

// Window identifies a named aggregation time range
type Window string

const (
	Window7d      Window = "7d"
	Window30d     Window = "30d"
	Window90d     Window = "90d"
	WindowAllTime Window = "all-time"
)

// String returns the string representation of Window
func (w Window) String() string {
	return string(w)
}

// ParseWindow validates a window tag and returns it, or false if unknown
func ParseWindow(s string) (Window, bool) {
	switch Window(s) {
	case Window7d, Window30d, Window90d, WindowAllTime:
		return Window(s), true
	}
	return "", false
}

// Duration returns the length of the window, or 0 for all-time
func (w Window) Duration() time.Duration {
	switch w {
	case Window7d:
		return 7 * 24 * time.Hour
	case Window30d:
		return 30 * 24 * time.Hour
	case Window90d:
		return 90 * 24 * time.Hour
	}
	return 0
}

// RankTier represents a contributor's rank band within an org
type RankTier string

const (
	RankTierBronze   RankTier = "Bronze"
	RankTierSilver   RankTier = "Silver"
	RankTierGold     RankTier = "Gold"
	RankTierPlatinum RankTier = "Platinum"
	RankTierDiamond  RankTier = "Diamond"
)

// AggregatedStats holds one contributor's aggregated activity for one
// (org, window) pair. Produced by the stats aggregator; treated as an
// immutable snapshot by the placeholder engine.
type AggregatedStats struct {
	UserID    int64  `json:"user_id" db:"user_id"`
	Login     string `json:"login" db:"login"`
	AvatarURL string `json:"avatar_url" db:"avatar_url"`

	OrgID       int64     `json:"org_id" db:"org_id"`
	Window      Window    `json:"window" db:"window"`
	WindowStart time.Time `json:"window_start" db:"window_start"`
	WindowEnd   time.Time `json:"window_end" db:"window_end"`

	Commits      int `json:"commits" db:"commits"`
	LinesAdded   int `json:"lines_added" db:"lines_added"`
	LinesRemoved int `json:"lines_removed" db:"lines_removed"`
	PRsMerged    int `json:"prs_merged" db:"prs_merged"`
	IssuesOpened int `json:"issues_opened" db:"issues_opened"`
	IssuesClosed int `json:"issues_closed" db:"issues_closed"`
	ActiveDays   int `json:"active_days" db:"active_days"`

	RawScore      float64  `json:"raw_score" db:"raw_score"`
	WeightedScore float64  `json:"weighted_score" db:"weighted_score"`
	CurrentStreak int      `json:"current_streak" db:"current_streak"`
	LongestStreak int      `json:"longest_streak" db:"longest_streak"`
	RankTier      RankTier `json:"rank_tier" db:"rank_tier"`
	RepoCount     int      `json:"repo_count" db:"repo_count"`
}

// RepoStatus describes a repository's activity state
type RepoStatus string

const (
	RepoStatusActive   RepoStatus = "active"
	RepoStatusQuiet    RepoStatus = "quiet"
	RepoStatusArchived RepoStatus = "archived"
)

// RepoAggregatedStats holds one repository's aggregated activity for one
// (org, window) pair
type RepoAggregatedStats struct {
	RepoID       int64      `json:"repo_id" db:"repo_id"`
	Name         string     `json:"name" db:"name"`
	OrgID        int64      `json:"org_id" db:"org_id"`
	Window       Window     `json:"window" db:"window"`
	Commits      int        `json:"commits" db:"commits"`
	PRs          int        `json:"prs" db:"prs"`
	Issues       int        `json:"issues" db:"issues"`
	LinesAdded   int        `json:"lines_added" db:"lines_added"`
	Contributors int        `json:"contributors" db:"contributors"`
	Status       RepoStatus `json:"status" db:"status"`
}

// OrgStatsSummary holds org-wide totals for one window
type OrgStatsSummary struct {
	OrgID           int64   `json:"org_id" db:"org_id"`
	OrgLogin        string  `json:"org_login" db:"org_login"`
	Window          Window  `json:"window" db:"window"`
	ActiveUsers     int     `json:"active_users" db:"active_users"`
	TotalCommits    int     `json:"total_commits" db:"total_commits"`
	TotalPRs        int     `json:"total_prs" db:"total_prs"`
	TotalLinesAdded int     `json:"total_lines_added" db:"total_lines_added"`
	TotalRepos      int     `json:"total_repos" db:"total_repos"`
	HealthScore     float64 `json:"health_score" db:"health_score"`
}

// ContributionEvent is one normalized webhook event row. The aggregator
// folds these into AggregatedStats.
type ContributionEvent struct {
	ID           string    `json:"id" db:"id"`
	OrgID        int64     `json:"org_id" db:"org_id"`
	RepoID       int64     `json:"repo_id" db:"repo_id"`
	RepoName     string    `json:"repo_name" db:"repo_name"`
	UserID       int64     `json:"user_id" db:"user_id"`
	Login        string    `json:"login" db:"login"`
	AvatarURL    string    `json:"avatar_url" db:"avatar_url"`
	Kind         EventKind `json:"kind" db:"kind"`
	LinesAdded   int       `json:"lines_added" db:"lines_added"`
	LinesRemoved int       `json:"lines_removed" db:"lines_removed"`
	OccurredAt   time.Time `json:"occurred_at" db:"occurred_at"`
	ReceivedAt   time.Time `json:"received_at" db:"received_at"`
}

// EventKind classifies a contribution event
type EventKind string

const (
	EventCommit      EventKind = "commit"
	EventPRMerged    EventKind = "pr_merged"
	EventIssueOpened EventKind = "issue_opened"
	EventIssueClosed EventKind = "issue_closed"
)

// Installation records a GitHub App installation for an org
type Installation struct {
	ID        int64     `json:"id" db:"id"`
	OrgID     int64     `json:"org_id" db:"org_id"`
	OrgLogin  string    `json:"org_login" db:"org_login"`
	Suspended bool      `json:"suspended" db:"suspended"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
