package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clawtrends/claw-trends/internal/server"
)

func newServeCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serve the cluster read API and the sync trigger endpoint. With --interval
a background ticker also runs a sync cycle periodically, for deployments
without an external cron.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, withSource, withEmbedder, withIndex, withStore)
			if err != nil {
				return err
			}
			defer a.Close()

			reconciler := a.newReconciler()

			if interval > 0 {
				go func() {
					ticker := time.NewTicker(interval)
					defer ticker.Stop()
					for {
						select {
						case <-ctx.Done():
							return
						case <-ticker.C:
							if _, err := reconciler.Sync(ctx); err != nil {
								a.log.Error().Err(err).Msg("scheduled sync failed")
							}
						}
					}
				}()
			}

			srv := server.New(reconciler, a.store, a.cfg.Server.CronSecret, a.log)
			return srv.ListenAndServe(ctx, a.cfg.Server.Addr)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "run a sync cycle every interval (e.g. 10m); 0 disables")

	return cmd
}
