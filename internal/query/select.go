package query

import (
	"fmt"
	"strings"

	"github.com/inversion-api/inversion-engine-sub011/internal/rql"
)

var (
	fromFunctions   = []string{"from"}
	selectFunctions = []string{
		"as", "include", "includes", "exclude", "excludes", "distinct",
		"count", "sum", "min", "max",
	}
	aggregates = map[string]bool{"count": true, "sum": true, "min": true, "max": true}
)

// AnonAliasPrefix prefixes the alias given to aggregates written without one.
const AnonAliasPrefix = "$$$ANON_"

// Projection is one output column: a plain column or an aggregate.
type Projection struct {
	// Func is empty for a plain column, otherwise count, sum, min or max.
	Func string
	// Column is nil only for count(*).
	Column *Column
	// Alias is the output name, empty for plain columns without as().
	Alias string
}

// Select collects projections.
//
// An aggregate without a trailing alias is wrapped as
// as(agg,'$$$ANON_n'), n being its 1-based position among the accepted
// select terms; max(col,'total') becomes as(max(col),'total').
type Select struct {
	q           *Query
	terms       []*rql.Term
	projections []Projection
	excludes    []Column
	distinct    bool
}

// Name implements clause.
func (s *Select) Name() string { return "select" }

// Functions returns the Select vocabulary.
func (s *Select) Functions() []string { return selectFunctions }

// Terms returns the accepted terms, aggregates already wrapped in as().
func (s *Select) Terms() []*rql.Term { return s.terms }

// Projections returns explicit projections in order.
func (s *Select) Projections() []Projection { return s.projections }

// Excludes returns the columns removed from the output.
func (s *Select) Excludes() []Column { return s.excludes }

// Distinct reports whether duplicate rows are removed.
func (s *Select) Distinct() bool { return s.distinct }

// HasAggregates reports whether any projection is an aggregate.
func (s *Select) HasAggregates() bool {
	for _, p := range s.projections {
		if p.Func != "" {
			return true
		}
	}
	return false
}

func (s *Select) accept(t *rql.Term) error {
	fn := strings.ToLower(t.Token())
	switch fn {
	case "distinct":
		s.distinct = true
		if err := s.include(t); err != nil {
			return err
		}
	case "include", "includes":
		if t.Len() == 0 {
			return invalid(fn, "", "needs at least one column")
		}
		if err := s.include(t); err != nil {
			return err
		}
	case "exclude", "excludes":
		if t.Len() == 0 {
			return invalid(fn, "", "needs at least one column")
		}
		for _, c := range t.Terms() {
			col, err := s.column(fn, c)
			if err != nil {
				return err
			}
			s.excludes = append(s.excludes, col)
		}
	case "as":
		if err := s.as(t); err != nil {
			return err
		}
	default:
		var alias *rql.Term
		if t.Len() == 2 {
			alias = t.Remove(1)
		} else {
			alias = rql.Quoted(fmt.Sprintf("%s%d", AnonAliasPrefix, len(s.terms)+1))
		}
		t = rql.New("as", t, alias)
		if err := s.as(t); err != nil {
			return err
		}
	}
	s.terms = append(s.terms, t)
	return nil
}

func (s *Select) include(t *rql.Term) error {
	for _, c := range t.Terms() {
		col, err := s.column(t.Token(), c)
		if err != nil {
			return err
		}
		s.projections = append(s.projections, Projection{Column: &col})
	}
	return nil
}

func (s *Select) as(t *rql.Term) error {
	if t.Len() != 2 || !t.Child(1).IsLeaf() || t.Child(1).Value() == "" {
		return invalid("as", t.String(), "expected as(column or aggregate, alias)")
	}
	alias := t.Child(1).Value()
	expr := t.Child(0)

	if expr.IsLeaf() {
		col, err := s.column("as", expr)
		if err != nil {
			return err
		}
		s.projections = append(s.projections, Projection{Column: &col, Alias: alias})
		return nil
	}

	fn := strings.ToLower(expr.Token())
	if !aggregates[fn] {
		return &UnsupportedError{Function: expr.Token(), Message: "not an aggregate"}
	}
	if expr.Len() != 1 || !expr.Child(0).IsLeaf() {
		return invalid(fn, expr.String(), "takes exactly one column")
	}
	p := Projection{Func: fn, Alias: alias}
	if arg := expr.Child(0); arg.Token() == "*" {
		if fn != "count" {
			return invalid(fn, "*", "only count accepts *")
		}
	} else {
		col, err := s.column(fn, arg)
		if err != nil {
			return err
		}
		p.Column = &col
	}
	s.projections = append(s.projections, p)
	return nil
}

func (s *Select) column(fn string, t *rql.Term) (Column, error) {
	if !t.IsLeaf() {
		return Column{}, invalid(fn, t.String(), "expected a column")
	}
	return s.q.localColumn(fn, t.Value())
}

// Outputs returns the projections to emit, or nil for every column.
//
// Grouped queries without plain column projections output the group
// columns first. Excluded columns are removed; exclude alone expands to
// every property of the collection.
func (q *Query) Outputs() []Projection {
	sel := q.Select()
	out := append([]Projection(nil), sel.Projections()...)

	if groups := q.Group().Columns(); len(groups) > 0 {
		hasColumns := false
		for _, p := range out {
			if p.Func == "" {
				hasColumns = true
			}
		}
		if !hasColumns {
			prefix := make([]Projection, len(groups))
			for i := range groups {
				prefix[i] = Projection{Column: &groups[i]}
			}
			out = append(prefix, out...)
		}
	}

	excludes := sel.Excludes()
	if len(excludes) == 0 {
		return out
	}
	if len(out) == 0 {
		for _, p := range q.collection.Properties {
			col := q.column(p)
			out = append(out, Projection{Column: &col})
		}
	}
	kept := out[:0]
	for _, p := range out {
		if p.Func == "" && p.Alias == "" && excluded(excludes, *p.Column) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func excluded(list []Column, c Column) bool {
	for _, e := range list {
		if e.Table == c.Table && e.Name == c.Name {
			return true
		}
	}
	return false
}

// From switches the queried collection and sets an optional alias.
// It must precede every other term.
type From struct {
	q     *Query
	terms []*rql.Term
}

// Name implements clause.
func (f *From) Name() string { return "from" }

// Functions returns the From vocabulary.
func (f *From) Functions() []string { return fromFunctions }

// Terms returns the accepted terms.
func (f *From) Terms() []*rql.Term { return f.terms }

func (f *From) accept(t *rql.Term) error {
	if t.Len() < 1 || t.Len() > 2 {
		return invalid("from", "", "expected from(collection[,alias])")
	}
	for _, name := range f.q.routed {
		if name != f.Name() {
			return invalid("from", t.Child(0).Value(), "must come before other terms")
		}
	}
	name := t.Child(0).Value()
	col, ok := f.q.catalog.Collection(name)
	if !ok {
		return &ResolutionError{Collection: "catalog", Reference: name, Message: "unknown collection"}
	}
	f.q.collection = col
	f.q.alias = ""
	if t.Len() == 2 {
		f.q.alias = t.Child(1).Value()
	}
	f.terms = append(f.terms, t)
	return nil
}
