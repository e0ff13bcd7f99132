package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clawtrends/claw-trends/pkg/models"
)

var rangeLookback = map[string]time.Duration{
	"day":   24 * time.Hour,
	"3days": 72 * time.Hour,
	"week":  7 * 24 * time.Hour,
	"month": 30 * 24 * time.Hour,
}

func newClustersCmd() *cobra.Command {
	var (
		typeFlag  string
		rangeFlag string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Show current topic clusters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			typ := models.TypePull
			if typeFlag == "issue" {
				typ = models.TypeIssue
			} else if typeFlag != "pr" {
				return fmt.Errorf("invalid --type %q (want pr or issue)", typeFlag)
			}

			var since *time.Time
			if rangeFlag != "" {
				window, ok := rangeLookback[rangeFlag]
				if !ok {
					return fmt.Errorf("invalid --range %q (want day, 3days, week, or month)", rangeFlag)
				}
				t := time.Now().Add(-window)
				since = &t
			}

			a, err := newApp(ctx, withStore)
			if err != nil {
				return err
			}
			defer a.Close()

			clusters, err := a.store.Clusters(ctx, typ, since)
			if err != nil {
				return err
			}

			if len(clusters) == 0 {
				fmt.Println("No clusters found")
				return nil
			}

			if limit > 0 && len(clusters) > limit {
				clusters = clusters[:limit]
			}

			fmt.Printf("%d clusters:\n\n", len(clusters))
			for i, c := range clusters {
				fmt.Printf("%d. %s (%d %ss)\n", i+1, c.Label, c.Count, typ)
				for _, m := range c.Members {
					fmt.Printf("   #%-6d %-7s %s\n", m.Number, m.Status, m.Title)
				}
				fmt.Println()
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "pr", "record type (pr or issue)")
	cmd.Flags().StringVar(&rangeFlag, "range", "", "time window (day, 3days, week, month); empty means all-time")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum clusters to print (0 for all)")

	return cmd
}
