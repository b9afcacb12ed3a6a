package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/leapstack-labs/leaporm/pkg/migrate"
	"github.com/spf13/cobra"
)

// DefaultMigrationsDir holds goose SQL migration files.
const DefaultMigrationsDir = "migrations"

// NewMigrateCommand creates the migrate command and its subcommands.
func NewMigrateCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert SQL migrations",
		Long: `Manage schema migrations stored as goose SQL files. Applied versions are
recorded in the prefixed leaporm_migrations table.`,
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", DefaultMigrationsDir, "Directory of SQL migration files")

	withMigrator := func(run func(cmd *cobra.Command, m *migrate.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(dir); err != nil {
				return fmt.Errorf("migrations directory %s: %w", dir, err)
			}
			st, release, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			m, err := migrate.New(st, migrate.WithFS(os.DirFS(dir)))
			if err != nil {
				return err
			}
			return run(cmd, m)
		}
	}

	results := func(run func(context.Context, *migrate.Migrator) ([]migrate.Result, error)) func(*cobra.Command, *migrate.Migrator) error {
		return func(cmd *cobra.Command, m *migrate.Migrator) error {
			res, err := run(cmd.Context(), m)
			if err != nil {
				return err
			}
			GetLogger(cmd.Context()).Info("migrations finished", "table", m.Table(), "count", len(res))
			rows := make([][]any, 0, len(res))
			for _, r := range res {
				rows = append(rows, []any{r.Version, r.Name, r.Direction, r.Duration.Round(time.Microsecond)})
			}
			return render(cmd.OutOrStdout(), GetConfig(cmd.Context()).Output, []string{"version", "name", "direction", "duration"}, rows, res)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(results(func(ctx context.Context, m *migrate.Migrator) ([]migrate.Result, error) {
			return m.Up(ctx)
		})),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Revert every applied migration and drop the version table",
		Args:  cobra.NoArgs,
		RunE: withMigrator(results(func(ctx context.Context, m *migrate.Migrator) ([]migrate.Result, error) {
			return m.Reset(ctx)
		})),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show which migrations are applied",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrator) error {
			status, err := m.Status(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]any, 0, len(status))
			for _, s := range status {
				applied := any(nil)
				if s.Applied {
					applied = s.AppliedAt.Format("2006-01-02 15:04:05")
				}
				rows = append(rows, []any{s.Version, s.Name, s.Applied, applied})
			}
			return render(cmd.OutOrStdout(), GetConfig(cmd.Context()).Output, []string{"version", "name", "applied", "applied_at"}, rows, status)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrator) error {
			v, err := m.Version(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		}),
	})

	return cmd
}
