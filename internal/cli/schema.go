package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inversion-api/inversion-engine-sub011/internal/schema"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema [collection]",
		Short: "Load and print the schema",
		Long: `Load the CUE schema directory, validate it and print its collections,
or a single collection with its properties, indexes and relationships.

Examples:
  rqlc schema -s ./schema
  rqlc schema -s ./schema orders --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(rootOpts, args, cmd)
		},
	}
}

func runSchema(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cat, err := opts.catalog()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSchema, err)
	}

	collections := cat.Collections()
	if len(args) == 1 {
		col, ok := cat.Collection(args[0])
		if !ok {
			return formatter.Fail(ExitCommandError, ErrCodeResolution, fmt.Errorf("unknown collection %q", args[0]))
		}
		collections = []schema.Collection{col}
	}
	formatter.VerboseLog("Loaded %d collection(s) from %s", len(cat.Collections()), opts.Schema)

	data := make([]any, len(collections))
	var text strings.Builder
	for i, col := range collections {
		data[i] = collectionMap(col)
		writeCollection(&text, col, len(args) == 1)
	}
	return formatter.Success(data, text.String())
}

func collectionMap(col schema.Collection) map[string]any {
	props := make([]any, len(col.Properties))
	for i, p := range col.Properties {
		props[i] = map[string]any{
			"name":     p.Name,
			"column":   p.Column,
			"type":     string(p.Type),
			"nullable": p.Nullable,
		}
	}
	indexes := make([]any, len(col.Indexes))
	for i, ix := range col.Indexes {
		indexes[i] = map[string]any{
			"name":       ix.Name,
			"kind":       string(ix.Kind),
			"properties": ix.Properties,
		}
	}
	rels := make([]any, len(col.Relationships))
	for i, r := range col.Relationships {
		m := map[string]any{
			"name":    r.Name,
			"kind":    string(r.Kind),
			"related": r.Related,
			"index":   r.Index,
		}
		if r.Linker != "" {
			m["linker"] = r.Linker
			m["related_index"] = r.RelatedIndex
		}
		rels[i] = m
	}
	return map[string]any{
		"name":          col.Name,
		"table":         col.Table,
		"properties":    props,
		"indexes":       indexes,
		"relationships": rels,
	}
}

func writeCollection(b *strings.Builder, col schema.Collection, detail bool) {
	fmt.Fprintf(b, "%s (table %s): %d properties, %d relationships\n",
		col.Name, col.Table, len(col.Properties), len(col.Relationships))
	if !detail {
		return
	}
	for _, p := range col.Properties {
		null := ""
		if p.Nullable {
			null = ", nullable"
		}
		fmt.Fprintf(b, "  %s -> %s (%s%s)\n", p.Name, p.Column, p.Type, null)
	}
	for _, ix := range col.Indexes {
		fmt.Fprintf(b, "  index %s %s(%s)\n", ix.Name, ix.Kind, strings.Join(ix.Properties, ", "))
	}
	for _, r := range col.Relationships {
		fmt.Fprintf(b, "  %s: %s %s via %s\n", r.Name, r.Kind, r.Related, r.Index)
	}
}
