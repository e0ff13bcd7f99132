// Package cli wires the claw-trends commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "claw-trends",
	Short: "Trending-topic clustering for one GitHub repository",
	Long: `claw-trends tracks the open PRs and issues of a single GitHub repository
and groups them into topic clusters by embedding similarity.

Incremental syncs assign each new record to its nearest existing cluster;
a full backfill rebuilds the whole partition from scratch.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newBackfillCmd())
	rootCmd.AddCommand(newClustersCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("claw-trends version %s\n", version)
		},
	}
}
