package commands

import (
	"github.com/leapstack-labs/leaporm/pkg/schema"
	"github.com/spf13/cobra"
)

// columnView is one described column as rendered by describe.
type columnView struct {
	Field    string   `json:"field" yaml:"field"`
	Type     string   `json:"type" yaml:"type"`
	Base     string   `json:"base" yaml:"base"`
	Length   int      `json:"length" yaml:"length"`
	Category string   `json:"category" yaml:"category"`
	Nullable bool     `json:"nullable" yaml:"nullable"`
	Key      string   `json:"key,omitempty" yaml:"key,omitempty"`
	Default  *string  `json:"default,omitempty" yaml:"default,omitempty"`
	Values   []string `json:"values,omitempty" yaml:"values,omitempty"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "Show the column descriptors of a table",
		Long: `Describe a table through the configured store and show how each column
is typed for validation. The store prefix is prepended to the table name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			views := make([]columnView, 0, len(ts.Columns()))
			rows := make([][]any, 0, len(ts.Columns()))
			for _, name := range ts.Columns() {
				col, _ := ts.Column(name)
				key := ""
				switch {
				case col.Primary:
					key = "PRI"
				case col.Unique:
					key = "UNI"
				}
				v := columnView{
					Field:    col.Name,
					Type:     col.Type.Raw,
					Base:     col.Type.Base,
					Length:   col.Type.Length,
					Category: string(col.Type.Category),
					Nullable: col.Nullable,
					Key:      key,
					Default:  col.Default,
					Values:   col.Type.Values,
				}
				views = append(views, v)

				def := any(nil)
				if v.Default != nil {
					def = *v.Default
				}
				rows = append(rows, []any{v.Field, v.Type, v.Category, lengthText(v.Length), v.Nullable, v.Key, def})
			}

			cols := []string{"field", "type", "category", "length", "nullable", "key", "default"}
			return render(cmd.OutOrStdout(), GetConfig(ctx).Output, cols, rows, views)
		},
	}
}

func lengthText(n int) string {
	if n == schema.Unrestricted {
		return "-"
	}
	return formatValue(n)
}
