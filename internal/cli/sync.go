package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one reconciliation cycle",
		Long: `Fetch new open PRs and issues, assign each to a topic cluster, and run
closure detection if the hourly full check is due.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, err := newApp(ctx, withSource, withEmbedder, withIndex, withStore)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.newReconciler().Sync(ctx)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			fmt.Printf("Synced %s: %d/%d new PRs, %d/%d new issues in %dms\n",
				a.cfg.GitHub.FullRepo(),
				stats.ProcessedPulls, stats.NewPulls,
				stats.ProcessedIssues, stats.NewIssues,
				stats.DurationMs)
			if stats.FullClosureCheck {
				fmt.Println("Full closure check: ran")
			}

			return nil
		},
	}
}
