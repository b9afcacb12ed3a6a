package commands

import (
	"fmt"

	"github.com/leapstack-labs/leaporm/pkg/orm"
	"github.com/spf13/cobra"
)

// filterFlags are the condition flags shared by rows and count.
type filterFlags struct {
	where    []string
	whereNot []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.where, "where", nil, "Filter column=value (repeatable)")
	cmd.Flags().StringArrayVar(&f.whereNot, "where-not", nil, "Exclude column=value (repeatable)")
}

func (f *filterFlags) apply(q *orm.Query) (*orm.Query, error) {
	eq, err := parsePairs(f.where)
	if err != nil {
		return nil, err
	}
	ne, err := parsePairs(f.whereNot)
	if err != nil {
		return nil, err
	}
	for _, p := range eq {
		q = q.Where(p[0], p[1])
	}
	for _, p := range ne {
		q = q.WhereNot(p[0], p[1])
	}
	return q, q.Err()
}

// NewRowsCommand creates the rows command.
func NewRowsCommand() *cobra.Command {
	var (
		filters filterFlags
		limit   int
		offset  int
		columns []string
		showSQL bool
	)

	cmd := &cobra.Command{
		Use:   "rows <table>",
		Short: "List the rows of a table as models",
		Long: `Query a table through the model layer. Every fetched row is validated
against the table schema while it is hydrated.`,
		Example: `  leaporm rows people --where status=live --limit 10
  leaporm rows people --columns id,name -o json
  leaporm rows people --where name=ada --sql`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, release, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer release()

			proto, err := loadModel(ctx, st, args[0])
			if err != nil {
				return err
			}
			q, err := filters.apply(proto.Query().Limit(limit).Offset(offset))
			if err != nil {
				return err
			}

			if showSQL {
				sql, err := q.SQL(columns...)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), sql)
				return nil
			}

			models, err := q.Get(ctx, columns...)
			if err != nil {
				return err
			}
			GetLogger(ctx).Debug("rows fetched", "table", proto.Table(), "count", len(models))

			cols := columns
			if len(cols) == 0 && len(models) > 0 {
				cols = models[0].Keys()
			}
			rows := make([][]any, 0, len(models))
			maps := make([]map[string]any, 0, len(models))
			for _, m := range models {
				row := make([]any, len(cols))
				for i, c := range cols {
					row[i] = m.Get(c)
				}
				rows = append(rows, row)
				maps = append(maps, m.ToMap())
			}

			format := GetConfig(ctx).Output
			if format == "json" {
				return render(cmd.OutOrStdout(), format, cols, rows, models)
			}
			return render(cmd.OutOrStdout(), format, cols, rows, maps)
		},
	}

	filters.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of rows (0 for no limit)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of rows to skip")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns to select (default all)")
	cmd.Flags().BoolVar(&showSQL, "sql", false, "Print the statement instead of running it")
	return cmd
}

// NewCountCommand creates the count command.
func NewCountCommand() *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "count <table>",
		Short: "Count the rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, release, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer release()

			proto, err := loadModel(ctx, st, args[0])
			if err != nil {
				return err
			}

			var n int64
			if len(filters.where) == 0 && len(filters.whereNot) == 0 {
				n, err = proto.TotalItems(ctx)
			} else {
				var q *orm.Query
				if q, err = filters.apply(proto.Query()); err == nil {
					n, err = q.Count(ctx)
				}
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}

	filters.register(cmd)
	return cmd
}
