package storage

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// sqliteSchema mirrors the postgres migrations for local setups and tests
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	org_id INTEGER NOT NULL,
	repo_id INTEGER NOT NULL,
	repo_name TEXT NOT NULL,
	user_id INTEGER NOT NULL,
	login TEXT NOT NULL,
	avatar_url TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL,
	lines_added INTEGER NOT NULL DEFAULT 0,
	lines_removed INTEGER NOT NULL DEFAULT 0,
	occurred_at TIMESTAMP NOT NULL,
	received_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_org_time ON events (org_id, occurred_at);

CREATE TABLE IF NOT EXISTS user_stats (
	user_id INTEGER NOT NULL,
	login TEXT NOT NULL,
	avatar_url TEXT NOT NULL DEFAULT '',
	org_id INTEGER NOT NULL,
	window TEXT NOT NULL,
	window_start TIMESTAMP NOT NULL,
	window_end TIMESTAMP NOT NULL,
	commits INTEGER NOT NULL DEFAULT 0,
	lines_added INTEGER NOT NULL DEFAULT 0,
	lines_removed INTEGER NOT NULL DEFAULT 0,
	prs_merged INTEGER NOT NULL DEFAULT 0,
	issues_opened INTEGER NOT NULL DEFAULT 0,
	issues_closed INTEGER NOT NULL DEFAULT 0,
	active_days INTEGER NOT NULL DEFAULT 0,
	raw_score REAL NOT NULL DEFAULT 0,
	weighted_score REAL NOT NULL DEFAULT 0,
	current_streak INTEGER NOT NULL DEFAULT 0,
	longest_streak INTEGER NOT NULL DEFAULT 0,
	rank_tier TEXT NOT NULL DEFAULT '',
	repo_count INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (org_id, user_id, window)
);

CREATE TABLE IF NOT EXISTS repo_stats (
	repo_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	org_id INTEGER NOT NULL,
	window TEXT NOT NULL,
	commits INTEGER NOT NULL DEFAULT 0,
	prs INTEGER NOT NULL DEFAULT 0,
	issues INTEGER NOT NULL DEFAULT 0,
	lines_added INTEGER NOT NULL DEFAULT 0,
	contributors INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'active',
	PRIMARY KEY (org_id, repo_id, window)
);

CREATE TABLE IF NOT EXISTS org_summaries (
	org_id INTEGER NOT NULL,
	org_login TEXT NOT NULL,
	window TEXT NOT NULL,
	active_users INTEGER NOT NULL DEFAULT 0,
	total_commits INTEGER NOT NULL DEFAULT 0,
	total_prs INTEGER NOT NULL DEFAULT 0,
	total_lines_added INTEGER NOT NULL DEFAULT 0,
	total_repos INTEGER NOT NULL DEFAULT 0,
	health_score REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (org_id, window)
);

CREATE TABLE IF NOT EXISTS opt_outs (
	org_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	PRIMARY KEY (org_id, user_id)
);

CREATE TABLE IF NOT EXISTS installations (
	id INTEGER PRIMARY KEY,
	org_id INTEGER NOT NULL,
	org_login TEXT NOT NULL,
	suspended INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// NewSQLiteStore opens (and bootstraps) a SQLite-backed Store
func NewSQLiteStore(path string, logger *logrus.Logger) (*SQLStore, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &SQLStore{
		db:     db,
		logger: logger,
	}, nil
}
