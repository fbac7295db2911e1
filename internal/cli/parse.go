package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/inversion-api/inversion-engine-sub011/internal/query"
	"github.com/inversion-api/inversion-engine-sub011/internal/rql"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Params bool // input is a URL query string
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <rql>",
		Short: "Parse RQL into terms",
		Long: `Parse an RQL string, or a URL query string with --params, into
top-level terms and print them in normalised form.

Examples:
  rqlc parse "and(eq(a,1),or(eq(b,2),n(c)))"
  rqlc parse --params "shipCountry=France&limit=10"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Params, "params", false, "treat input as a URL query string")

	return cmd
}

func runParse(opts *ParseOptions, input string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	terms, err := parseInput(input, opts.Params)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrorCode(err), err)
	}

	data := make([]any, len(terms))
	var text strings.Builder
	for i, t := range terms {
		data[i] = termTree(t)
		text.WriteString(t.String())
		text.WriteByte('\n')
	}
	return formatter.Success(data, text.String())
}

func parseInput(input string, params bool) ([]*rql.Term, error) {
	if params {
		return rql.ParseParams(input, query.IsFunction)
	}
	return rql.Parse(input)
}

// termTree converts t into nested maps: leaves become their token,
// calls become {"token": ..., "args": [...]}.
func termTree(t *rql.Term) any {
	if t.IsLeaf() {
		return t.Token()
	}
	args := make([]any, t.Len())
	for i, c := range t.Terms() {
		args[i] = termTree(c)
	}
	return map[string]any{"token": t.Token(), "args": args}
}
