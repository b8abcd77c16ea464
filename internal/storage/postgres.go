package storage

import (
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// NewPostgresStore connects to PostgreSQL and returns a Store backed by it
func NewPostgresStore(dsn string, logger *logrus.Logger) (*SQLStore, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Connection pool sized for concurrent resolution passes, which are
	// read-heavy and short-lived.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &SQLStore{
		db:     db,
		logger: logger,
	}, nil
}
