package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/leaporm/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve configured tables as JSON resources",
		Long: `Start an HTTP server exposing every table listed under resources in the
config file. Each resource supports list, show, create, update and delete.
Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, release, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer release()

			cfg := GetConfig(ctx)
			logger := GetLogger(ctx)
			if len(cfg.Resources) == 0 {
				logger.Warn("no resources configured, only /healthz and /metrics are served")
			}

			srv, err := server.New(ctx, server.Options{
				Store:     st,
				Config:    cfg.Server,
				Resources: cfg.Resources,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			return srv.Serve(ctx)
		},
	}
}
