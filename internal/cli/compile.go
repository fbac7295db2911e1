package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inversion-api/inversion-engine-sub011/internal/dialect"
)

// CompileOptions holds flags for the compile and exec commands.
type CompileOptions struct {
	*RootOptions
	Params bool // input is a URL query string
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <collection> <rql>",
		Short: "Compile RQL into a dialect statement",
		Long: `Compile an RQL query against the schema and print the statement
text, the count text and the bind values without touching a database.

Examples:
  rqlc compile -s ./schema orders "eq(shipCountry,France),sort(-orderDate)"
  rqlc compile -s ./schema -d postgres orders "gt(customer.city,B*)"
  rqlc compile -s ./schema --params orders "shipCountry=France&limit=5"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Params, "params", false, "treat input as a URL query string")

	return cmd
}

func runCompile(opts *CompileOptions, collection, input string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	stmt, err := opts.compile(collection, input, true)
	if err != nil {
		return failCompile(formatter, err)
	}
	formatter.VerboseLog("Compiled %s query on %s", stmt.Dialect, stmt.Collection)

	res := stmt.DryRunResults()
	return formatter.Success(res.Debug.Map(), statementText(stmt))
}

// compile loads the schema and dialect and compiles one query.
func (o *CompileOptions) compile(collection, input string, dryRun bool) (*dialect.Statement, error) {
	d, err := o.dialect()
	if err != nil {
		return nil, &setupError{code: ErrCodeConfig, err: err}
	}
	cat, err := o.catalog()
	if err != nil {
		return nil, &setupError{code: ErrCodeSchema, err: err}
	}
	q, err := d.Query(cat, collection)
	if err != nil {
		return nil, err
	}
	if o.Params {
		err = q.WithParams(input)
	} else {
		err = q.WithRQL(input)
	}
	if err != nil {
		return nil, err
	}
	q.SetDryRun(dryRun)
	return d.Compile(q)
}

// setupError marks failures that happen before compilation starts.
type setupError struct {
	code string
	err  error
}

func (e *setupError) Error() string { return e.err.Error() }
func (e *setupError) Unwrap() error { return e.err }

func failCompile(formatter *OutputFormatter, err error) error {
	code := ErrorCode(err)
	if se, ok := err.(*setupError); ok {
		code = se.code
	}
	return formatter.Fail(ExitCommandError, code, err)
}

func statementText(stmt *dialect.Statement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "dialect: %s\n", stmt.Dialect)
	fmt.Fprintf(&b, "text:    %s\n", stmt.Text)
	if stmt.CountText != "" {
		fmt.Fprintf(&b, "count:   %s\n", stmt.CountText)
	}
	fmt.Fprintf(&b, "values:  %s\n", formatValues(stmt.Values))
	return b.String()
}

func formatValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if s, ok := v.(string); ok {
			parts[i] = fmt.Sprintf("%q", s)
			continue
		}
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
