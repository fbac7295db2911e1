package dialect

import (
	"fmt"
	"strings"

	"github.com/inversion-api/inversion-engine-sub011/internal/query"
)

// KeyValueQuery is a partition-key query or a scan. Attribute names and
// values are referenced through the #n and :v placeholders in Names and
// Values.
type KeyValueQuery struct {
	Table        string
	PartitionKey string
	SortKey      string

	// Scan is set when no eq condition on the partition key exists.
	Scan         bool
	KeyCondition string
	Filter       string
	Projection   string

	Names  map[string]string
	Values map[string]any

	Limit    int
	Forward  bool
	StartKey map[string]any
}

// String renders q on one line for logs and dry runs.
func (q *KeyValueQuery) String() string {
	var b strings.Builder
	if q.Scan {
		b.WriteString("SCAN ")
	} else {
		b.WriteString("QUERY ")
	}
	b.WriteString(q.Table)
	if q.KeyCondition != "" {
		b.WriteString(" KEY " + q.KeyCondition)
	}
	if q.Filter != "" {
		b.WriteString(" FILTER " + q.Filter)
	}
	if q.Projection != "" {
		b.WriteString(" PROJECT " + q.Projection)
	}
	fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	if !q.Forward {
		b.WriteString(" DESC")
	}
	if q.StartKey != nil {
		b.WriteString(" AFTER")
	}
	return b.String()
}

// keyOps are the operators allowed on the sort key in a key condition.
var keyOps = map[string]bool{"eq": true, "lt": true, "le": true, "gt": true, "ge": true, "sw": true}

func compileKeyValue(d *Dialect, q *query.Query) (*Statement, error) {
	sel := q.Select()
	for _, p := range sel.Projections() {
		if p.Func != "" {
			return nil, d.unsupported(p.Func, "aggregates are not supported")
		}
	}
	if len(q.Group().Columns()) > 0 {
		return nil, d.unsupported("group", "grouping is not supported")
	}
	if sel.Distinct() {
		return nil, d.unsupported("distinct", "distinct is not supported")
	}
	page := q.Page()
	if page.Offset() > 0 {
		return nil, d.unsupported("offset", "page with after instead")
	}

	col := q.Collection()
	pk, ok := col.PrimaryIndex()
	if !ok {
		return nil, d.unsupported("from", "collection %s has no primary index", col.Name)
	}
	keys := col.IndexProperties(pk)
	kv := &KeyValueQuery{
		Table:        col.Table,
		PartitionKey: keys[0].Column,
		Names:        map[string]string{},
		Values:       map[string]any{},
		Limit:        page.Limit(),
		Forward:      true,
	}
	if len(keys) > 1 {
		kv.SortKey = keys[1].Column
	}

	c := newTextCompiler(d, q)
	byAttr := map[string]string{}
	c.ref = func(_, column string) string {
		if name, ok := byAttr[column]; ok {
			return name
		}
		name := fmt.Sprintf("#n%d", len(byAttr))
		byAttr[column] = name
		kv.Names[name] = column
		return name
	}
	c.placeholder = func(n int) string { return fmt.Sprintf(":v%d", n-1) }

	var conjuncts []query.Predicate
	for _, p := range q.Where().Predicates() {
		conjuncts = append(conjuncts, flatten(p)...)
	}
	keyConds, filters := kv.split(conjuncts)

	var err error
	if kv.KeyCondition, err = c.conjunction(keyConds); err != nil {
		return nil, err
	}
	if kv.Filter, err = c.conjunction(filters); err != nil {
		return nil, err
	}

	sorts := q.Order().Sorts()
	switch {
	case len(sorts) == 0:
	case len(sorts) > 1 || kv.SortKey == "" || sorts[0].Column.Name != kv.SortKey:
		return nil, d.unsupported("sort", "only the sort key can order results")
	case kv.Scan:
		return nil, d.unsupported("sort", "ordering needs an eq condition on %s", kv.PartitionKey)
	default:
		kv.Forward = !sorts[0].Desc
	}

	if outs := q.Outputs(); len(outs) > 0 {
		names := make([]string, len(outs))
		for i, p := range outs {
			names[i] = c.ref(p.Column.Table, p.Column.Name)
		}
		kv.Projection = strings.Join(names, ", ")
	}

	if after := page.After(); after != "" {
		var start map[string]any
		if err := query.DecodeCursor(after, &start); err != nil {
			return nil, err
		}
		kv.StartKey = start
	}

	for i, v := range c.values {
		kv.Values[fmt.Sprintf(":v%d", i)] = v
	}

	return &Statement{
		Dialect:    d.Name,
		Kind:       d.Kind,
		Collection: col.Name,
		Text:       kv.String(),
		Values:     c.values,
		Native:     kv,
		Limit:      kv.Limit,
		Page:       1,
		Sort:       sorts,
	}, nil
}

// split picks the key condition: the first eq on the partition key plus
// at most one sort-key comparison. Everything else is filtered. Without a
// partition-key eq the query becomes a scan.
func (kv *KeyValueQuery) split(conjuncts []query.Predicate) (key, filter []query.Predicate) {
	partition := -1
	for i, p := range conjuncts {
		if cmp, ok := p.(query.Compare); ok && cmp.Op == "eq" && cmp.Column.Name == kv.PartitionKey {
			partition = i
			break
		}
	}
	if partition < 0 {
		kv.Scan = true
		return nil, conjuncts
	}

	key = append(key, conjuncts[partition])
	sortKey := false
	for i, p := range conjuncts {
		if i == partition {
			continue
		}
		if cmp, ok := p.(query.Compare); ok && !sortKey && kv.SortKey != "" &&
			cmp.Column.Name == kv.SortKey && keyOps[cmp.Op] {
			key = append(key, p)
			sortKey = true
			continue
		}
		filter = append(filter, p)
	}
	return key, filter
}

// flatten splits nested conjunctions into their parts.
func flatten(p query.Predicate) []query.Predicate {
	and, ok := p.(query.And)
	if !ok {
		return []query.Predicate{p}
	}
	var out []query.Predicate
	for _, c := range and.Predicates {
		out = append(out, flatten(c)...)
	}
	return out
}
