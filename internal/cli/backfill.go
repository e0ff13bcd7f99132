package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clawtrends/claw-trends/internal/cluster"
	"github.com/clawtrends/claw-trends/pkg/models"
)

func newBackfillCmd() *cobra.Command {
	var typeFlag string

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Rebuild topic clusters from scratch",
		Long: `Fetch every open PR and issue, re-embed them, and recompute the full
cluster partition. Existing rows keep their status; only cluster
assignments are replaced.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			var types []models.RecordType
			switch typeFlag {
			case "pr":
				types = []models.RecordType{models.TypePull}
			case "issue":
				types = []models.RecordType{models.TypeIssue}
			case "all":
				types = []models.RecordType{models.TypePull, models.TypeIssue}
			default:
				return fmt.Errorf("invalid --type %q (want pr, issue, or all)", typeFlag)
			}

			a, err := newApp(ctx, withSource, withEmbedder, withIndex, withStore)
			if err != nil {
				return err
			}
			defer a.Close()

			start := time.Now()

			var records []*models.Record
			for _, typ := range types {
				// No known ids: the full open population comes back.
				recs, err := a.source.ListNew(ctx, typ, nil)
				if err != nil {
					return fmt.Errorf("listing %ss failed: %w", typ, err)
				}
				records = append(records, recs...)
			}

			if len(records) == 0 {
				fmt.Println("Nothing to cluster")
				return nil
			}

			bc := cluster.NewBatchClusterer(a.embedder, a.index, a.log)
			assignment, err := bc.Run(ctx, records)
			if err != nil {
				return fmt.Errorf("clustering failed: %w", err)
			}

			if err := a.store.ReplaceAssignments(ctx, records, assignment); err != nil {
				return err
			}

			stats := batchStats(records, assignment, start)
			fmt.Printf("Clustered %d records into %d clusters (largest: %d) in %dms\n",
				stats.TotalRecords, stats.Clusters, stats.Largest, stats.DurationMs)

			// Points from since-closed records stay indexed and keep serving
			// as neighbor candidates; report them so operators can judge
			// whether the index needs recreating. Only meaningful when the
			// full population was fetched.
			if typeFlag == "all" {
				if stale, err := countStale(ctx, a, records); err == nil && stale > 0 {
					fmt.Printf("Index holds %d points from records no longer open\n", stale)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "all", "record type to backfill (pr, issue, all)")

	return cmd
}

func countStale(ctx context.Context, a *app, records []*models.Record) (int, error) {
	indexed, err := a.index.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	open := make(map[string]bool, len(records))
	for _, rec := range records {
		open[rec.ID()] = true
	}

	stale := 0
	for _, meta := range indexed {
		if !open[meta.ID] {
			stale++
		}
	}
	return stale, nil
}

func batchStats(records []*models.Record, assignment map[string]string, start time.Time) models.BatchStats {
	sizes := make(map[string]int)
	for _, rec := range records {
		sizes[assignment[rec.ID()]]++
	}

	largest := 0
	for _, n := range sizes {
		if n > largest {
			largest = n
		}
	}

	return models.BatchStats{
		TotalRecords: len(records),
		Clusters:     len(sizes),
		Largest:      largest,
		DurationMs:   int(time.Since(start).Milliseconds()),
	}
}
