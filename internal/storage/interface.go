package storage

import (
	"context"
	"errors"
	"time"

	"github.com/impactboard/impactboard-go/internal/models"
)

// Common errors
var (
	ErrNotFound = errors.New("not found")
)

// Store defines the storage interface. The read side (org stats, repo
// stats, summaries, opt-outs) is the query surface the placeholder engine
// consumes; the write side is used by webhook ingestion and the
// aggregator.
type Store interface {
	// Read surface consumed by the placeholder engine
	GetOrgStats(ctx context.Context, orgID int64, window models.Window) ([]models.AggregatedStats, error)
	GetRepoStats(ctx context.Context, orgID int64, window models.Window) ([]models.RepoAggregatedStats, error)
	GetOrgSummary(ctx context.Context, orgID int64, window models.Window) (*models.OrgStatsSummary, error)
	GetOptedOutUserIDs(ctx context.Context, orgID int64) ([]int64, error)

	// Event ingestion
	SaveEvents(ctx context.Context, events []models.ContributionEvent) error
	GetEvents(ctx context.Context, orgID int64, since time.Time) ([]models.ContributionEvent, error)

	// Aggregation output
	SaveUserStats(ctx context.Context, stats []models.AggregatedStats) error
	SaveRepoStats(ctx context.Context, stats []models.RepoAggregatedStats) error
	SaveOrgSummary(ctx context.Context, summary *models.OrgStatsSummary) error

	// Privacy opt-outs
	SetOptOut(ctx context.Context, orgID, userID int64, optedOut bool) error

	// Installation lifecycle
	SaveInstallation(ctx context.Context, inst *models.Installation) error
	GetInstallation(ctx context.Context, orgID int64) (*models.Installation, error)
	DeleteInstallation(ctx context.Context, id int64) error

	// Close connection
	Close() error
}
