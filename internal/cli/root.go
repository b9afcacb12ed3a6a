// Package cli provides the command-line interface for leaporm.
package cli

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/leaporm/internal/cli/commands"
	"github.com/leapstack-labs/leaporm/internal/config"
	"github.com/leapstack-labs/leaporm/internal/logging"
	"github.com/spf13/cobra"

	// Store backends register themselves on import.
	_ "github.com/leapstack-labs/leaporm/pkg/stores/duckdb"
	_ "github.com/leapstack-labs/leaporm/pkg/stores/mysql"
	_ "github.com/leapstack-labs/leaporm/pkg/stores/postgres"
	_ "github.com/leapstack-labs/leaporm/pkg/stores/sqlite"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "leaporm",
		Short: "leaporm - schema-validated models over SQL tables",
		Long: `leaporm maps database tables onto models whose attributes are validated
against the live column definitions of each table.

Use it to inspect tables, query rows through the model layer, validate
values, run migrations, or serve tables as JSON resources.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log)
			if err != nil {
				return err
			}

			ctx := commands.WithConfig(cmd.Context(), cfg.Config)
			ctx = commands.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			if cfg.Verbose && cfg.File != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", cfg.File)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./leaporm.yaml)")
	flags.String("store", "", "Store type (mysql|sqlite|postgres|duckdb)")
	flags.String("path", "", "Database file for file-based stores")
	flags.String("database", "", "Database name")
	flags.String("host", "", "Database host")
	flags.Int("port", 0, "Database port")
	flags.String("user", "", "Database user")
	flags.String("password", "", "Database password")
	flags.String("prefix", "", "Table name prefix")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
	flags.String("log-format", "", "Log format (text|json|pretty)")
	flags.String("addr", "", "Listen address for serve")
	flags.StringP("output", "o", "", "Output format (table|json|yaml)")
	flags.BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("store", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"mysql", "sqlite", "postgres", "duckdb"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "pretty"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewDescribeCommand())
	rootCmd.AddCommand(commands.NewRowsCommand())
	rootCmd.AddCommand(commands.NewCountCommand())
	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for leaporm.

To load completions:

Bash:
  $ source <(leaporm completion bash)

Zsh:
  $ leaporm completion zsh > "${fpath[1]}/_leaporm"

Fish:
  $ leaporm completion fish | source

PowerShell:
  PS> leaporm completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
