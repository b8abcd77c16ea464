// Package storage provides the SQL-backed Store used by ingestion, the
// aggregator, and the placeholder engine. PostgreSQL is the production
// backend; SQLite serves local and test setups. Both share the same
// query set via sqlx rebinding.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/impactboard/impactboard-go/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// SQLStore implements Store on top of an sqlx database handle
type SQLStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// GetOrgStats returns the full per-user snapshot for one (org, window),
// ordered by weighted score descending with login as the stable tie
// break. Privacy filtering is the caller's job; this is the raw set.
func (s *SQLStore) GetOrgStats(ctx context.Context, orgID int64, window models.Window) ([]models.AggregatedStats, error) {
	query := s.db.Rebind(`
		SELECT user_id, login, avatar_url, org_id, window, window_start, window_end,
			commits, lines_added, lines_removed, prs_merged, issues_opened,
			issues_closed, active_days, raw_score, weighted_score,
			current_streak, longest_streak, rank_tier, repo_count
		FROM user_stats
		WHERE org_id = ? AND window = ?
		ORDER BY weighted_score DESC, login ASC`)

	var stats []models.AggregatedStats
	if err := s.db.SelectContext(ctx, &stats, query, orgID, window); err != nil {
		return nil, fmt.Errorf("select user stats: %w", err)
	}
	return stats, nil
}

// GetRepoStats returns per-repo stats ordered by commits descending
func (s *SQLStore) GetRepoStats(ctx context.Context, orgID int64, window models.Window) ([]models.RepoAggregatedStats, error) {
	query := s.db.Rebind(`
		SELECT repo_id, name, org_id, window, commits, prs, issues,
			lines_added, contributors, status
		FROM repo_stats
		WHERE org_id = ? AND window = ?
		ORDER BY commits DESC, name ASC`)

	var stats []models.RepoAggregatedStats
	if err := s.db.SelectContext(ctx, &stats, query, orgID, window); err != nil {
		return nil, fmt.Errorf("select repo stats: %w", err)
	}
	return stats, nil
}

// GetOrgSummary returns the org-wide totals row for one window
func (s *SQLStore) GetOrgSummary(ctx context.Context, orgID int64, window models.Window) (*models.OrgStatsSummary, error) {
	query := s.db.Rebind(`
		SELECT org_id, org_login, window, active_users, total_commits,
			total_prs, total_lines_added, total_repos, health_score
		FROM org_summaries
		WHERE org_id = ? AND window = ?`)

	var summary models.OrgStatsSummary
	if err := s.db.GetContext(ctx, &summary, query, orgID, window); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select org summary: %w", err)
	}
	return &summary, nil
}

// GetOptedOutUserIDs returns the authoritative opt-out set for an org
func (s *SQLStore) GetOptedOutUserIDs(ctx context.Context, orgID int64) ([]int64, error) {
	query := s.db.Rebind(`SELECT user_id FROM opt_outs WHERE org_id = ?`)

	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, query, orgID); err != nil {
		return nil, fmt.Errorf("select opt-outs: %w", err)
	}
	return ids, nil
}

// SaveEvents inserts normalized contribution events. Redelivered webhook
// events share their id, so conflicts are ignored for idempotency.
func (s *SQLStore) SaveEvents(ctx context.Context, events []models.ContributionEvent) error {
	if len(events) == 0 {
		return nil
	}
	query := `
		INSERT INTO events (id, org_id, repo_id, repo_name, user_id, login,
			avatar_url, kind, lines_added, lines_removed, occurred_at, received_at)
		VALUES (:id, :org_id, :repo_id, :repo_name, :user_id, :login,
			:avatar_url, :kind, :lines_added, :lines_removed, :occurred_at, :received_at)
		ON CONFLICT (id) DO NOTHING`

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, event := range events {
		if _, err := tx.NamedExecContext(ctx, query, event); err != nil {
			return fmt.Errorf("insert event %s: %w", event.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit events: %w", err)
	}

	s.logger.WithField("count", len(events)).Debug("saved contribution events")
	return nil
}

// GetEvents returns events for an org that occurred at or after since,
// oldest first
func (s *SQLStore) GetEvents(ctx context.Context, orgID int64, since time.Time) ([]models.ContributionEvent, error) {
	query := s.db.Rebind(`
		SELECT id, org_id, repo_id, repo_name, user_id, login, avatar_url,
			kind, lines_added, lines_removed, occurred_at, received_at
		FROM events
		WHERE org_id = ? AND occurred_at >= ?
		ORDER BY occurred_at ASC, id ASC`)

	var events []models.ContributionEvent
	if err := s.db.SelectContext(ctx, &events, query, orgID, since); err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	return events, nil
}

// SaveUserStats upserts aggregated per-user rows
func (s *SQLStore) SaveUserStats(ctx context.Context, stats []models.AggregatedStats) error {
	if len(stats) == 0 {
		return nil
	}
	query := `
		INSERT INTO user_stats (user_id, login, avatar_url, org_id, window,
			window_start, window_end, commits, lines_added, lines_removed,
			prs_merged, issues_opened, issues_closed, active_days, raw_score,
			weighted_score, current_streak, longest_streak, rank_tier, repo_count)
		VALUES (:user_id, :login, :avatar_url, :org_id, :window,
			:window_start, :window_end, :commits, :lines_added, :lines_removed,
			:prs_merged, :issues_opened, :issues_closed, :active_days, :raw_score,
			:weighted_score, :current_streak, :longest_streak, :rank_tier, :repo_count)
		ON CONFLICT (org_id, user_id, window) DO UPDATE SET
			login = EXCLUDED.login,
			avatar_url = EXCLUDED.avatar_url,
			window_start = EXCLUDED.window_start,
			window_end = EXCLUDED.window_end,
			commits = EXCLUDED.commits,
			lines_added = EXCLUDED.lines_added,
			lines_removed = EXCLUDED.lines_removed,
			prs_merged = EXCLUDED.prs_merged,
			issues_opened = EXCLUDED.issues_opened,
			issues_closed = EXCLUDED.issues_closed,
			active_days = EXCLUDED.active_days,
			raw_score = EXCLUDED.raw_score,
			weighted_score = EXCLUDED.weighted_score,
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			rank_tier = EXCLUDED.rank_tier,
			repo_count = EXCLUDED.repo_count`

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, st := range stats {
		if _, err := tx.NamedExecContext(ctx, query, st); err != nil {
			return fmt.Errorf("upsert user stats for %s: %w", st.Login, err)
		}
	}
	return tx.Commit()
}

// SaveRepoStats upserts aggregated per-repo rows
func (s *SQLStore) SaveRepoStats(ctx context.Context, stats []models.RepoAggregatedStats) error {
	if len(stats) == 0 {
		return nil
	}
	query := `
		INSERT INTO repo_stats (repo_id, name, org_id, window, commits, prs,
			issues, lines_added, contributors, status)
		VALUES (:repo_id, :name, :org_id, :window, :commits, :prs,
			:issues, :lines_added, :contributors, :status)
		ON CONFLICT (org_id, repo_id, window) DO UPDATE SET
			name = EXCLUDED.name,
			commits = EXCLUDED.commits,
			prs = EXCLUDED.prs,
			issues = EXCLUDED.issues,
			lines_added = EXCLUDED.lines_added,
			contributors = EXCLUDED.contributors,
			status = EXCLUDED.status`

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, st := range stats {
		if _, err := tx.NamedExecContext(ctx, query, st); err != nil {
			return fmt.Errorf("upsert repo stats for %s: %w", st.Name, err)
		}
	}
	return tx.Commit()
}

// SaveOrgSummary upserts the org-wide totals row for one window
func (s *SQLStore) SaveOrgSummary(ctx context.Context, summary *models.OrgStatsSummary) error {
	query := `
		INSERT INTO org_summaries (org_id, org_login, window, active_users,
			total_commits, total_prs, total_lines_added, total_repos, health_score)
		VALUES (:org_id, :org_login, :window, :active_users,
			:total_commits, :total_prs, :total_lines_added, :total_repos, :health_score)
		ON CONFLICT (org_id, window) DO UPDATE SET
			org_login = EXCLUDED.org_login,
			active_users = EXCLUDED.active_users,
			total_commits = EXCLUDED.total_commits,
			total_prs = EXCLUDED.total_prs,
			total_lines_added = EXCLUDED.total_lines_added,
			total_repos = EXCLUDED.total_repos,
			health_score = EXCLUDED.health_score`

	if _, err := s.db.NamedExecContext(ctx, query, summary); err != nil {
		return fmt.Errorf("upsert org summary: %w", err)
	}
	return nil
}

// SetOptOut records or clears a user's full opt-out for an org
func (s *SQLStore) SetOptOut(ctx context.Context, orgID, userID int64, optedOut bool) error {
	if optedOut {
		query := s.db.Rebind(`
			INSERT INTO opt_outs (org_id, user_id) VALUES (?, ?)
			ON CONFLICT (org_id, user_id) DO NOTHING`)
		if _, err := s.db.ExecContext(ctx, query, orgID, userID); err != nil {
			return fmt.Errorf("insert opt-out: %w", err)
		}
		return nil
	}
	query := s.db.Rebind(`DELETE FROM opt_outs WHERE org_id = ? AND user_id = ?`)
	if _, err := s.db.ExecContext(ctx, query, orgID, userID); err != nil {
		return fmt.Errorf("delete opt-out: %w", err)
	}
	return nil
}

// SaveInstallation upserts a GitHub App installation record
func (s *SQLStore) SaveInstallation(ctx context.Context, inst *models.Installation) error {
	query := `
		INSERT INTO installations (id, org_id, org_login, suspended, created_at, updated_at)
		VALUES (:id, :org_id, :org_login, :suspended, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			org_login = EXCLUDED.org_login,
			suspended = EXCLUDED.suspended,
			updated_at = EXCLUDED.updated_at`

	if _, err := s.db.NamedExecContext(ctx, query, inst); err != nil {
		return fmt.Errorf("upsert installation: %w", err)
	}
	return nil
}

// GetInstallation returns the installation record for an org
func (s *SQLStore) GetInstallation(ctx context.Context, orgID int64) (*models.Installation, error) {
	query := s.db.Rebind(`
		SELECT id, org_id, org_login, suspended, created_at, updated_at
		FROM installations WHERE org_id = ?`)

	var inst models.Installation
	if err := s.db.GetContext(ctx, &inst, query, orgID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select installation: %w", err)
	}
	return &inst, nil
}

// DeleteInstallation removes an installation record. Opt-outs are kept
// and survive a reinstall.
func (s *SQLStore) DeleteInstallation(ctx context.Context, id int64) error {
	query := s.db.Rebind(`DELETE FROM installations WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete installation: %w", err)
	}
	return nil
}
