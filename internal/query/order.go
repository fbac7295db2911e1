package query

import (
	"strings"

	"github.com/inversion-api/inversion-engine-sub011/internal/rql"
)

var (
	orderFunctions = []string{"sort", "order"}
	groupFunctions = []string{"group"}
)

// Sort is one ORDER BY key.
type Sort struct {
	Column Column
	Desc   bool
}

// Order collects sort keys. sort(-a,+b) and sort(a,desc,b,asc) both work;
// a bare asc or desc applies to the column before it.
type Order struct {
	q     *Query
	terms []*rql.Term
	sorts []Sort
}

// Name implements clause.
func (o *Order) Name() string { return "order" }

// Functions returns the Order vocabulary.
func (o *Order) Functions() []string { return orderFunctions }

// Terms returns the accepted terms.
func (o *Order) Terms() []*rql.Term { return o.terms }

// Sorts returns the explicit sort keys in order.
func (o *Order) Sorts() []Sort { return o.sorts }

func (o *Order) accept(t *rql.Term) error {
	if t.Len() == 0 {
		return invalid(t.Token(), "", "needs at least one column")
	}
	var sorts []Sort
	for _, c := range t.Terms() {
		if !c.IsLeaf() {
			return invalid(t.Token(), c.String(), "expected a column")
		}
		name := c.Value()
		if !c.IsQuoted() && (strings.EqualFold(name, "asc") || strings.EqualFold(name, "desc")) {
			if len(sorts) == 0 {
				return invalid(t.Token(), name, "direction without a column")
			}
			sorts[len(sorts)-1].Desc = strings.EqualFold(name, "desc")
			continue
		}

		desc := false
		switch {
		case strings.HasPrefix(name, "-"):
			desc, name = true, name[1:]
		case strings.HasPrefix(name, "+"):
			name = name[1:]
		}
		col, err := o.q.localColumn(t.Token(), name)
		if err != nil {
			return err
		}
		sorts = append(sorts, Sort{Column: col, Desc: desc})
	}
	o.sorts = append(o.sorts, sorts...)
	o.terms = append(o.terms, t)
	return nil
}

// Group collects GROUP BY columns.
type Group struct {
	q       *Query
	terms   []*rql.Term
	columns []Column
}

// Name implements clause.
func (g *Group) Name() string { return "group" }

// Functions returns the Group vocabulary.
func (g *Group) Functions() []string { return groupFunctions }

// Terms returns the accepted terms.
func (g *Group) Terms() []*rql.Term { return g.terms }

// Columns returns the grouping columns in order.
func (g *Group) Columns() []Column { return g.columns }

func (g *Group) accept(t *rql.Term) error {
	if t.Len() == 0 {
		return invalid(t.Token(), "", "needs at least one column")
	}
	var cols []Column
	for _, c := range t.Terms() {
		if !c.IsLeaf() {
			return invalid(t.Token(), c.String(), "expected a column")
		}
		col, err := g.q.localColumn(t.Token(), c.Value())
		if err != nil {
			return err
		}
		cols = append(cols, col)
	}
	g.columns = append(g.columns, cols...)
	g.terms = append(g.terms, t)
	return nil
}

// localColumn resolves ref and rejects columns that need a relationship hop.
func (q *Query) localColumn(fn, ref string) (Column, error) {
	col, err := q.Resolve(ref)
	if err != nil {
		return Column{}, err
	}
	if col.Hop != nil {
		return Column{}, invalid(fn, ref, "related properties can only be filtered on")
	}
	return col, nil
}
