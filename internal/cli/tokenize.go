package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inversion-api/inversion-engine-sub011/internal/rql"
)

// NewTokenizeCommand creates the tokenize command.
func NewTokenizeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tokenize <rql>",
		Short: "Split an RQL string into tokens",
		Long: `Split an RQL string into call, literal and close tokens.

Examples:
  rqlc tokenize "eq(shipCity,'Reims'),limit(10)"
  rqlc tokenize --format json "and(eq(a,1),n(b))"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenize(rootOpts, args[0], cmd)
		},
	}
}

func runTokenize(opts *RootOptions, input string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	tokens, err := rql.Tokenize(input)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrorCode(err), err)
	}

	data := make([]any, len(tokens))
	var text strings.Builder
	for i, tok := range tokens {
		data[i] = map[string]any{
			"kind":   tok.Kind.String(),
			"text":   tok.Text,
			"offset": tok.Offset,
		}
		fmt.Fprintf(&text, "%-7s %3d  %s\n", tok.Kind, tok.Offset, tok.Text)
	}
	return formatter.Success(data, text.String())
}
