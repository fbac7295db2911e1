// Package dialect turns a classified query.Query into an executable
// Statement for one backend.
//
// A Dialect is a capability table, not a type hierarchy: identifier
// quoting, placeholder style, the operator templates it supports,
// pagination syntax, paging bounds and value casting. One generic
// compiler serves every SQL and document dialect; key-value dialects
// produce a native KeyValueQuery instead of text.
//
// Dialects never execute anything. A Statement is run by an Executor,
// see package store.
package dialect

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/inversion-api/inversion-engine-sub011/internal/query"
	"github.com/inversion-api/inversion-engine-sub011/internal/schema"
)

// Kind selects the compiler a Dialect uses.
type Kind int

const (
	// KindSQL emits relational SQL text.
	KindSQL Kind = iota
	// KindDocument emits a document-store SQL variant.
	KindDocument
	// KindKeyValue emits a native KeyValueQuery.
	KindKeyValue
)

func (k Kind) String() string {
	switch k {
	case KindSQL:
		return "sql"
	case KindDocument:
		return "document"
	case KindKeyValue:
		return "keyvalue"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Operator is the expression template for one Where function.
type Operator struct {
	// Template uses {c} for the column and {v} for the placeholder, or
	// the comma-separated placeholders of in/out.
	Template string
	// Value rewrites each bind value, e.g. adding % for starts-with.
	Value func(v any) any
}

// Dialect is a backend capability table. Registered dialects are shared
// and must not be modified.
type Dialect struct {
	Name string
	Kind Kind

	// QuoteIdent quotes a table, column or alias name.
	QuoteIdent func(name string) string
	// Identifier, when set, is the pattern a user-supplied alias must match
	// because QuoteIdent cannot quote it.
	Identifier *regexp.Regexp
	// ColumnRef renders a qualified column. Nil means QuoteIdent(table) + "." + QuoteIdent(column).
	ColumnRef func(table, column string) string
	// Star renders the all-columns projection for a table alias.
	Star func(alias string) string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// Paginate renders the paging suffix, including its leading space.
	Paginate func(limit, offset int) string
	// CountExpr is the select list of the count query.
	CountExpr string

	// Operators lists the supported Where functions after rewriting.
	Operators map[string]Operator

	DefaultLimit int
	MaxLimit     int

	// DefaultSort orders by the primary index when no sort is given.
	DefaultSort bool
	// OrderRequired means Paginate is only valid after an ORDER BY.
	OrderRequired bool
	// Hops allows filtering on related columns through correlated sub-selects.
	Hops bool
	// Aggregates allows count, sum, min, max and group.
	Aggregates bool
	// Distinct allows distinct.
	Distinct bool

	// Cast converts Where literals. Nil means schema.DefaultCaster.
	Cast schema.Caster
}

// Caster implements query.Backend.
func (d *Dialect) Caster() schema.Caster {
	if d.Cast != nil {
		return d.Cast
	}
	return schema.DefaultCaster
}

// Limits implements query.Backend.
func (d *Dialect) Limits() (def, max int) {
	return d.DefaultLimit, d.MaxLimit
}

// Supports reports whether the Where function op is available.
func (d *Dialect) Supports(op string) bool {
	_, ok := d.Operators[strings.ToLower(op)]
	return ok
}

// Query starts a query against collection bound to this dialect.
func (d *Dialect) Query(cat *schema.Catalog, collection string) (*query.Query, error) {
	return query.New(cat, collection, d)
}

// Compile translates q. Compilation has no side effects on failure.
func (d *Dialect) Compile(q *query.Query) (*Statement, error) {
	var (
		stmt *Statement
		err  error
	)
	switch d.Kind {
	case KindSQL, KindDocument:
		stmt, err = compileText(d, q)
	case KindKeyValue:
		stmt, err = compileKeyValue(d, q)
	default:
		return nil, fmt.Errorf("dialect %s: unknown kind %v", d.Name, d.Kind)
	}
	if err != nil {
		return nil, err
	}
	stmt.DryRun = q.DryRun()
	slog.Debug("statement compiled",
		"dialect", d.Name,
		"collection", q.Collection().Name,
		"text", stmt.Text,
		"values", len(stmt.Values))
	return stmt, nil
}

// CompileRQL parses rql against collection and compiles it.
func (d *Dialect) CompileRQL(cat *schema.Catalog, collection, rql string) (*Statement, error) {
	q, err := d.Query(cat, collection)
	if err != nil {
		return nil, err
	}
	if err := q.WithRQL(rql); err != nil {
		return nil, err
	}
	return d.Compile(q)
}

func (d *Dialect) columnRef(table, column string) string {
	if d.ColumnRef != nil {
		return d.ColumnRef(table, column)
	}
	return d.QuoteIdent(table) + "." + d.QuoteIdent(column)
}

func (d *Dialect) unsupported(fn, format string, args ...any) error {
	return &query.UnsupportedError{Dialect: d.Name, Function: fn, Message: fmt.Sprintf(format, args...)}
}
