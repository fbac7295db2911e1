package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/inversion-api/inversion-engine-sub011/internal/results"
	"github.com/inversion-api/inversion-engine-sub011/internal/store"
)

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <collection> <rql>",
		Short: "Compile RQL and run it against a database",
		Long: `Compile an RQL query and execute it through database/sql.

The driver follows the dialect (sqlite -> sqlite3, postgres -> pgx,
duckdb -> duckdb) unless --driver is set. SQLite databases are opened
read-only.

Examples:
  rqlc exec -s ./schema --dsn northwind.db orders "eq(shipCountry,France)"
  rqlc exec -s ./schema -d postgres --dsn postgres://localhost/nw orders "limit(5)"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Params, "params", false, "treat input as a URL query string")

	return cmd
}

func runExec(opts *CompileOptions, collection, input string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if opts.DSN == "" {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, fmt.Errorf("no database: set --dsn or %s_DSN", EnvPrefix))
	}

	stmt, err := opts.compile(collection, input, false)
	if err != nil {
		return failCompile(formatter, err)
	}

	var db *store.SQL
	if opts.Driver != "" {
		db, err = store.OpenDriver(opts.Driver, opts.DSN)
	} else {
		db, err = store.Open(stmt.Dialect, opts.DSN)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err)
	}
	defer db.Close()

	res, err := stmt.Execute(cmd.Context(), db)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err)
	}
	if opts.Verbose {
		res.Debug = stmt.DryRunResults().Debug
	}
	formatter.VerboseLog("%d row(s) from %s", res.Len(), stmt.Collection)

	return formatter.Success(res.Map(), resultsText(res))
}

// resultsText renders rows as an aligned table followed by paging
// metadata.
func resultsText(res *results.Results) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	if len(res.Columns) > 0 {
		fmt.Fprintln(w, strings.Join(res.Columns, "\t"))
		for _, row := range res.Rows {
			cells := make([]string, len(res.Columns))
			for i, col := range res.Columns {
				cells[i] = formatCell(row[col])
			}
			fmt.Fprintln(w, strings.Join(cells, "\t"))
		}
	}
	w.Flush()

	fmt.Fprintf(&b, "\n%d row(s), found %d, page %d (limit %d, offset %d)\n",
		res.Len(), res.Found, res.Page, res.Limit, res.Offset)
	if res.Next != "" {
		fmt.Fprintf(&b, "next: %s\n", res.Next)
	}
	return b.String()
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(v)
}
