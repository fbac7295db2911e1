package query

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/inversion-api/inversion-engine-sub011/internal/rql"
	"github.com/inversion-api/inversion-engine-sub011/internal/schema"
)

// Default paging bounds used when a Backend reports none.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Backend is what a Query needs from the store it is compiled for.
type Backend interface {
	// Caster converts Where literals into backend-typed values.
	Caster() schema.Caster
	// Limits returns the default and maximum page size.
	Limits() (def, max int)
}

// clause is implemented by every clause builder.
type clause interface {
	Name() string
	Functions() []string
	Terms() []*rql.Term
	accept(t *rql.Term) error
}

// Query is one request's classified, resolved RQL.
type Query struct {
	catalog    *schema.Catalog
	collection schema.Collection
	alias      string
	backend    Backend
	dryRun     bool

	from   *From
	where  *Where
	page   *Page
	order  *Order
	group  *Group
	sel    *Select
	routed []string

	values    []any
	originals []string
}

// New starts a Query against the named collection. backend may be nil,
// in which case schema.DefaultCaster and the package default limits apply.
func New(catalog *schema.Catalog, collection string, backend Backend) (*Query, error) {
	if catalog == nil {
		return nil, fmt.Errorf("query: nil catalog")
	}
	col, ok := catalog.Collection(collection)
	if !ok {
		return nil, &ResolutionError{Collection: "catalog", Reference: collection, Message: "unknown collection"}
	}
	return &Query{catalog: catalog, collection: col, backend: backend}, nil
}

// WithRQL parses an RQL string through the shared parse cache and adds
// every term.
func (q *Query) WithRQL(s string) error {
	terms, err := rql.ParseCached(s)
	if err != nil {
		return err
	}
	return q.WithTerms(terms...)
}

// WithParams adds the terms of a URL query string, see rql.ParseParams.
func (q *Query) WithParams(raw string) error {
	terms, err := rql.ParseParams(raw, IsFunction)
	if err != nil {
		return err
	}
	return q.WithTerms(terms...)
}

// WithTerms adds terms in order, stopping at the first error.
func (q *Query) WithTerms(terms ...*rql.Term) error {
	for _, t := range terms {
		if err := q.WithTerm(t); err != nil {
			return err
		}
	}
	return nil
}

// WithTerm routes a top-level term to its clause.
// The term may be rewritten in place by the accepting clause.
func (q *Query) WithTerm(t *rql.Term) error {
	if t == nil {
		return nil
	}
	for _, c := range q.clauses() {
		if !containsFold(c.Functions(), t.Token()) {
			continue
		}
		slog.Debug("term routed", "clause", c.Name(), "term", t.String())
		if err := c.accept(t); err != nil {
			return err
		}
		q.routed = append(q.routed, c.Name())
		return nil
	}
	return &UnsupportedError{Function: t.Token(), Message: "unknown function"}
}

// clauses returns the builders in routing order.
func (q *Query) clauses() []clause {
	return []clause{q.From(), q.Where(), q.Page(), q.Order(), q.Group(), q.Select()}
}

// Routed lists the clause that accepted each term, in order.
func (q *Query) Routed() []string {
	return append([]string(nil), q.routed...)
}

// From returns the From clause, creating it on first use.
func (q *Query) From() *From {
	if q.from == nil {
		q.from = &From{q: q}
	}
	return q.from
}

// Where returns the Where clause, creating it on first use.
func (q *Query) Where() *Where {
	if q.where == nil {
		q.where = &Where{q: q}
	}
	return q.where
}

// Page returns the Page clause, creating it on first use.
func (q *Query) Page() *Page {
	if q.page == nil {
		q.page = &Page{q: q}
	}
	return q.page
}

// Order returns the Order clause, creating it on first use.
func (q *Query) Order() *Order {
	if q.order == nil {
		q.order = &Order{q: q}
	}
	return q.order
}

// Group returns the Group clause, creating it on first use.
func (q *Query) Group() *Group {
	if q.group == nil {
		q.group = &Group{q: q}
	}
	return q.group
}

// Select returns the Select clause, creating it on first use.
func (q *Query) Select() *Select {
	if q.sel == nil {
		q.sel = &Select{q: q}
	}
	return q.sel
}

// Catalog returns the catalog the Query resolves against.
func (q *Query) Catalog() *schema.Catalog { return q.catalog }

// Collection returns the collection being queried.
func (q *Query) Collection() schema.Collection { return q.collection }

// Alias is the name columns of the main collection are qualified with:
// the from() alias when set, otherwise the physical table.
func (q *Query) Alias() string {
	if q.alias != "" {
		return q.alias
	}
	return q.collection.Table
}

// Backend returns the backend passed to New, which may be nil.
func (q *Query) Backend() Backend { return q.backend }

// SetDryRun marks the Query as compile-only.
func (q *Query) SetDryRun(dry bool) { q.dryRun = dry }

// DryRun reports whether the Query is compile-only.
func (q *Query) DryRun() bool { return q.dryRun }

// Values returns the cast bind values in encounter order.
func (q *Query) Values() []any { return append([]any(nil), q.values...) }

// Originals returns the raw text of each bind value, index-aligned with Values.
func (q *Query) Originals() []string { return append([]string(nil), q.originals...) }

func (q *Query) caster() schema.Caster {
	if q.backend != nil {
		if c := q.backend.Caster(); c != nil {
			return c
		}
	}
	return schema.DefaultCaster
}

func (q *Query) limits() (def, max int) {
	def, max = DefaultLimit, MaxLimit
	if q.backend != nil {
		if d, m := q.backend.Limits(); d > 0 {
			def = d
			if m > 0 {
				max = m
			}
		}
	}
	if def > max {
		def = max
	}
	return def, max
}

// bind casts raw for p and appends it to both bind lists.
func (q *Query) bind(p schema.Property, raw string) (Arg, error) {
	v, err := q.caster().Cast(p, raw)
	if err != nil {
		return Arg{}, err
	}
	return q.bindValue(v, raw), nil
}

// bindValue appends an already converted value.
func (q *Query) bindValue(v any, raw string) Arg {
	q.values = append(q.values, v)
	q.originals = append(q.originals, raw)
	return Arg{Index: len(q.values) - 1, Value: v, Raw: raw}
}

// Sorts returns the effective ordering: the explicit order() terms, or a
// deterministic default.
//
// The default is the group columns for grouped queries, nothing for a
// pure aggregate, the projected columns for a distinct projection, and the
// primary index otherwise.
func (q *Query) Sorts() []Sort {
	if explicit := q.Order().Sorts(); len(explicit) > 0 {
		return explicit
	}
	return q.DefaultSorts()
}

// DefaultSorts is the ordering used when no order() term was given.
func (q *Query) DefaultSorts() []Sort {
	if groups := q.Group().Columns(); len(groups) > 0 {
		sorts := make([]Sort, len(groups))
		for i, c := range groups {
			sorts[i] = Sort{Column: c}
		}
		return sorts
	}
	sel := q.Select()
	if sel.HasAggregates() {
		return nil
	}
	if sel.Distinct() {
		var sorts []Sort
		for _, p := range sel.Projections() {
			if p.Column != nil {
				sorts = append(sorts, Sort{Column: *p.Column})
			}
		}
		if len(sorts) > 0 {
			return sorts
		}
	}
	pk, ok := q.collection.PrimaryIndex()
	if !ok {
		return nil
	}
	var sorts []Sort
	for _, p := range q.collection.IndexProperties(pk) {
		sorts = append(sorts, Sort{Column: q.column(p)})
	}
	return sorts
}

// Filter returns the conjunction of every top-level Where predicate, or
// nil when there is none.
func (q *Query) Filter() Predicate {
	preds := q.Where().Predicates()
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	}
	return And{Predicates: preds}
}

// IsFunction reports whether name is in any clause vocabulary.
func IsFunction(name string) bool {
	for _, vocab := range vocabularies {
		if containsFold(vocab, name) {
			return true
		}
	}
	return false
}

var vocabularies = [][]string{
	fromFunctions,
	whereFunctions,
	pageFunctions,
	orderFunctions,
	groupFunctions,
	selectFunctions,
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
