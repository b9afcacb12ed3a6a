package commands

import (
	"fmt"

	"github.com/leapstack-labs/leaporm/pkg/schema"
	"github.com/spf13/cobra"
)

type checkResult struct {
	Column string `json:"column" yaml:"column"`
	Value  string `json:"value" yaml:"value"`
	Valid  bool   `json:"valid" yaml:"valid"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <table> <column=value>...",
		Short: "Validate values against the column types of a table",
		Long: `Check whether each value would be accepted by its column. Values are
validated exactly as the model layer validates assigned attributes.`,
		Example: `  leaporm check people age=42 status=live
  leaporm check people age=-1 -o json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := parsePairs(args[1:])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			st, release, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer release()

			ts, err := schema.Load(ctx, st, st.Prefix()+args[0])
			if err != nil {
				return err
			}

			results := make([]checkResult, 0, len(pairs))
			rows := make([][]any, 0, len(pairs))
			invalid := 0
			for _, p := range pairs {
				ok, err := ts.ValidateColumn(p[0], p[1])
				if err != nil {
					return err
				}
				if !ok {
					invalid++
				}
				results = append(results, checkResult{Column: p[0], Value: p[1], Valid: ok})
				rows = append(rows, []any{p[0], p[1], ok})
			}

			if err := render(cmd.OutOrStdout(), GetConfig(ctx).Output, []string{"column", "value", "valid"}, rows, results); err != nil {
				return err
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d values are not valid for %s", invalid, len(pairs), ts.Table())
			}
			return nil
		},
	}
}
