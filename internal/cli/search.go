package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clawtrends/claw-trends/internal/embedding"
)

func newSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search indexed records by semantic similarity (debugging)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			query := args[0]

			a, err := newApp(ctx, withEmbedder, withIndex)
			if err != nil {
				return err
			}
			defer a.Close()

			vector, err := a.embedder.Embed(ctx, embedding.PrepareText(query, ""))
			if err != nil {
				return fmt.Errorf("failed to embed query: %w", err)
			}

			results, err := a.index.Search(ctx, vector, limit)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			if len(results) == 0 {
				fmt.Println("No similar records found")
				return nil
			}

			fmt.Printf("Found %d similar records:\n\n", len(results))
			for i, r := range results {
				fmt.Printf("%d. %s #%d - %s\n", i+1, r.Metadata.Type, r.Metadata.Number, r.Metadata.Title)
				fmt.Printf("   Similarity: %.1f%% | Cluster: %s\n", r.Score*100, r.Metadata.ClusterID)
				fmt.Printf("   %s\n\n", r.Metadata.URL)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results to return")

	return cmd
}
