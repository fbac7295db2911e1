package dialect

import (
	"fmt"
	"strings"

	"github.com/inversion-api/inversion-engine-sub011/internal/query"
)

// textCompiler renders one query for a SQL or document dialect.
// Values are collected in placeholder order.
type textCompiler struct {
	d           *Dialect
	q           *query.Query
	ref         func(table, column string) string
	placeholder func(n int) string
	values      []any
}

func newTextCompiler(d *Dialect, q *query.Query) *textCompiler {
	return &textCompiler{d: d, q: q, ref: d.columnRef, placeholder: d.Placeholder}
}

func compileText(d *Dialect, q *query.Query) (*Statement, error) {
	c := newTextCompiler(d, q)
	if err := c.check(); err != nil {
		return nil, err
	}

	page := q.Page()
	limit, offset := page.Limit(), page.Offset()
	sorts := q.Order().Sorts()
	if len(sorts) == 0 && d.DefaultSort {
		sorts = q.DefaultSorts()
	}

	preds := q.Where().Predicates()
	filter, err := c.conjunction(preds)
	if err != nil {
		return nil, err
	}
	countValues := append([]any(nil), c.values...)

	where := filter
	if after := page.After(); after != "" {
		var keys []any
		if err := query.DecodeCursor(after, &keys); err != nil {
			return nil, err
		}
		keyset, err := query.Keyset(sorts, keys)
		if err != nil {
			return nil, err
		}
		text, err := c.predicate(keyset, len(preds) == 0)
		if err != nil {
			return nil, err
		}
		if where == "" {
			where = text
		} else {
			where += " AND " + text
		}
		// The cursor replaces the offset.
		offset = 0
	}

	from := c.tableRef(q.Collection().Table, q.Alias())
	body := c.body(from, where)

	var b strings.Builder
	b.WriteString(body)
	if len(sorts) > 0 {
		b.WriteString(" ORDER BY ")
		for i, s := range sorts {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.ref(s.Column.Table, s.Column.Name))
			if s.Desc {
				b.WriteString(" DESC")
			} else {
				b.WriteString(" ASC")
			}
		}
	} else if d.OrderRequired {
		b.WriteString(" ORDER BY (SELECT NULL)")
	}
	b.WriteString(d.Paginate(limit, offset))

	return &Statement{
		Dialect:     d.Name,
		Kind:        d.Kind,
		Collection:  q.Collection().Name,
		Text:        b.String(),
		CountText:   c.countText(from, filter),
		Values:      c.values,
		CountValues: countValues,
		Limit:       limit,
		Offset:      offset,
		Page:        offset/limit + 1,
		Sort:        sorts,
	}, nil
}

func (c *textCompiler) check() error {
	sel := c.q.Select()
	if !c.d.Aggregates {
		for _, p := range sel.Projections() {
			if p.Func != "" {
				return c.d.unsupported(p.Func, "aggregates are not supported")
			}
		}
		if len(c.q.Group().Columns()) > 0 {
			return c.d.unsupported("group", "grouping is not supported")
		}
	}
	if sel.Distinct() && !c.d.Distinct {
		return c.d.unsupported("distinct", "distinct is not supported")
	}
	if c.d.Identifier != nil {
		if a := c.q.Alias(); a != c.q.Collection().Table && !c.d.Identifier.MatchString(a) {
			return c.d.unsupported("from", "alias %q is not a valid identifier", a)
		}
		for _, p := range c.q.Outputs() {
			if p.Alias != "" && !c.d.Identifier.MatchString(p.Alias) {
				return c.d.unsupported("as", "alias %q is not a valid identifier", p.Alias)
			}
		}
	}
	return nil
}

// body renders SELECT ... FROM ... WHERE ... GROUP BY ...
func (c *textCompiler) body(from, where string) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if c.q.Select().Distinct() {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(c.selectList())
	b.WriteString(" FROM ")
	b.WriteString(from)
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	if groups := c.q.Group().Columns(); len(groups) > 0 {
		b.WriteString(" GROUP BY ")
		for i, g := range groups {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.ref(g.Table, g.Name))
		}
	}
	return b.String()
}

// countText counts every row the filter matches, ignoring paging and the
// cursor. Ungrouped aggregates always yield one row and get no count.
func (c *textCompiler) countText(from, filter string) string {
	sel := c.q.Select()
	grouped := len(c.q.Group().Columns()) > 0
	if sel.HasAggregates() && !grouped {
		return ""
	}
	if grouped || sel.Distinct() {
		if c.d.Kind == KindDocument {
			return ""
		}
		return "SELECT " + c.d.CountExpr + " FROM (" + c.body(from, filter) + ") AS " + c.d.QuoteIdent("_rows")
	}
	text := "SELECT " + c.d.CountExpr + " FROM " + from
	if filter != "" {
		text += " WHERE " + filter
	}
	return text
}

func (c *textCompiler) selectList() string {
	outs := c.q.Outputs()
	if len(outs) == 0 {
		return c.d.Star(c.q.Alias())
	}
	parts := make([]string, len(outs))
	for i, p := range outs {
		var expr string
		alias := p.Alias
		switch {
		case p.Func == "":
			expr = c.ref(p.Column.Table, p.Column.Name)
			if alias == "" && c.d.Kind == KindDocument {
				alias = p.Column.Name
			}
		case p.Column == nil:
			expr = strings.ToUpper(p.Func) + "(*)"
		default:
			expr = strings.ToUpper(p.Func) + "(" + c.ref(p.Column.Table, p.Column.Name) + ")"
		}
		if alias != "" {
			expr += " AS " + c.d.QuoteIdent(alias)
		}
		parts[i] = expr
	}
	return strings.Join(parts, ", ")
}

func (c *textCompiler) tableRef(table, alias string) string {
	if alias == "" || alias == table {
		return c.d.QuoteIdent(table)
	}
	return c.d.QuoteIdent(table) + " AS " + c.d.QuoteIdent(alias)
}

// conjunction joins top-level predicates with AND, without parentheses.
func (c *textCompiler) conjunction(preds []query.Predicate) (string, error) {
	if len(preds) == 0 {
		return "", nil
	}
	return c.join(preds, " AND ", true)
}

func (c *textCompiler) predicate(p query.Predicate, top bool) (string, error) {
	switch v := p.(type) {
	case query.Compare:
		return c.compare(v)
	case query.And:
		if len(v.Predicates) == 0 {
			return "1 = 1", nil
		}
		return c.join(v.Predicates, " AND ", top)
	case query.Or:
		if len(v.Predicates) == 0 {
			return "1 = 0", nil
		}
		return c.join(v.Predicates, " OR ", top)
	case query.Not:
		inner, err := c.predicate(v.Predicate, true)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	}
	return "", fmt.Errorf("dialect %s: unknown predicate %T", c.d.Name, p)
}

func (c *textCompiler) join(preds []query.Predicate, sep string, top bool) (string, error) {
	parts := make([]string, len(preds))
	for i, p := range preds {
		s, err := c.predicate(p, false)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	s := strings.Join(parts, sep)
	if !top && len(parts) > 1 {
		s = "(" + s + ")"
	}
	return s, nil
}

func (c *textCompiler) compare(cmp query.Compare) (string, error) {
	op, ok := c.d.Operators[cmp.Op]
	if !ok {
		return "", c.d.unsupported(cmp.Op, "operator is not supported")
	}
	hop := cmp.Column.Hop
	if hop != nil && !c.d.Hops {
		return "", c.d.unsupported(hop.Relationship.Name, "related columns are not supported")
	}

	expr := c.render(op, c.ref(cmp.Column.Table, cmp.Column.Name), cmp.Args)
	if hop == nil {
		return expr, nil
	}
	return c.exists(hop, expr), nil
}

// render fills an operator template, binding each argument.
func (c *textCompiler) render(op Operator, column string, args []query.Arg) string {
	placeholders := make([]string, len(args))
	for i, a := range args {
		v := a.Value
		if op.Value != nil {
			v = op.Value(v)
		}
		c.values = append(c.values, v)
		placeholders[i] = c.placeholder(len(c.values))
	}
	s := strings.ReplaceAll(op.Template, "{c}", column)
	return strings.ReplaceAll(s, "{v}", strings.Join(placeholders, ", "))
}

// exists wraps a predicate on a related column in a correlated sub-select.
func (c *textCompiler) exists(h *query.Hop, pred string) string {
	tables := make([]string, len(h.Tables))
	for i, t := range h.Tables {
		tables[i] = c.tableRef(t.Table, t.Alias)
	}
	conds := make([]string, 0, len(h.On)+1)
	for _, j := range h.On {
		conds = append(conds, c.ref(j.Left.Table, j.Left.Column)+" = "+c.ref(j.Right.Table, j.Right.Column))
	}
	conds = append(conds, pred)
	return "EXISTS (SELECT 1 FROM " + strings.Join(tables, ", ") + " WHERE " + strings.Join(conds, " AND ") + ")"
}
