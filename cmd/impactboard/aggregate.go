package main

import (
	"context"
	"time"

	"github.com/impactboard/impactboard-go/internal/stats"
	"github.com/spf13/cobra"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Recompute contribution statistics from stored events",
	RunE:  runAggregate,
}

func init() {
	aggregateCmd.Flags().Int64("org", 0, "organization ID")
	aggregateCmd.Flags().String("org-login", "", "organization login")
	aggregateCmd.MarkFlagRequired("org")
}

func runAggregate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	orgID, _ := cmd.Flags().GetInt64("org")
	orgLogin, _ := cmd.Flags().GetString("org-login")

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	agg := stats.NewAggregator(store, logger)
	if err := agg.AggregateOrg(ctx, orgID, orgLogin, time.Now().UTC()); err != nil {
		return err
	}
	logger.WithField("org", orgLogin).Info("aggregation complete")
	return nil
}
