package main

import (
	"context"
	"io"
	"testing"

	"github.com/impactboard/impactboard-go/internal/models"
	"github.com/impactboard/impactboard-go/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicLeaderboardExcludesOptedOut(t *testing.T) {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	store, err := storage.NewSQLiteStore(":memory:", quiet)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	orgID := int64(42)
	require.NoError(t, store.SaveUserStats(ctx, []models.AggregatedStats{
		{UserID: 1, Login: "alice", OrgID: orgID, Window: models.Window30d, WeightedScore: 300},
		{UserID: 2, Login: "bob", OrgID: orgID, Window: models.Window30d, WeightedScore: 200},
		{UserID: 3, Login: "carol", OrgID: orgID, Window: models.Window30d, WeightedScore: 100},
	}))
	require.NoError(t, store.SetOptOut(ctx, orgID, 1, true))

	users, err := publicLeaderboard(ctx, store, orgID, models.Window30d)
	require.NoError(t, err)

	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[0].Login, "first printed rank goes to the first public user")
	assert.Equal(t, "carol", users[1].Login)
}
