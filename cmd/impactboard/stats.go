package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/impactboard/impactboard-go/internal/models"
	"github.com/impactboard/impactboard-go/internal/privacy"
	"github.com/impactboard/impactboard-go/internal/storage"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the stored leaderboard for an org",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().Int64("org", 0, "organization ID")
	statsCmd.Flags().String("window", "30d", "time window (7d, 30d, 90d, all-time)")
	statsCmd.MarkFlagRequired("org")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	orgID, _ := cmd.Flags().GetInt64("org")
	windowFlag, _ := cmd.Flags().GetString("window")
	window, ok := models.ParseWindow(windowFlag)
	if !ok {
		return fmt.Errorf("unknown window %q", windowFlag)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	users, err := publicLeaderboard(ctx, store, orgID, window)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("No statistics recorded for this org and window.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	printLeaderboard(w, users)
	return w.Flush()
}

// publicLeaderboard returns the stored leaderboard with opted-out users
// removed. The CLI shows the same set a rendered board would.
func publicLeaderboard(ctx context.Context, store storage.Store, orgID int64, window models.Window) ([]models.AggregatedStats, error) {
	users, err := store.GetOrgStats(ctx, orgID, window)
	if err != nil {
		return nil, err
	}
	optedOut, err := store.GetOptedOutUserIDs(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return privacy.Filter(users, privacy.NewOptOutSet(optedOut)), nil
}

func printLeaderboard(w *tabwriter.Writer, users []models.AggregatedStats) {
	fmt.Fprintln(w, "#\tUSER\tSCORE\tCOMMITS\tPRS\tSTREAK\tTIER")
	for i, u := range users {
		fmt.Fprintf(w, "%d\t@%s\t%.0f\t%d\t%d\t%d\t%s\n",
			i+1, u.Login, u.WeightedScore, u.Commits, u.PRsMerged, u.CurrentStreak, u.RankTier)
	}
}
