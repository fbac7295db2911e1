package query

import (
	"strings"

	"github.com/inversion-api/inversion-engine-sub011/internal/rql"
	"github.com/inversion-api/inversion-engine-sub011/internal/schema"
)

var whereFunctions = []string{
	"eq", "ne", "lt", "le", "gt", "ge", "in", "out",
	"and", "or", "not",
	"like", "sw", "ew", "w", "wo",
	"n", "nn", "emp", "nemp",
	"_key",
}

// patternOps take a single text argument that is never type cast.
var patternOps = map[string]bool{"like": true, "sw": true, "ew": true, "w": true, "wo": true}

// Where builds the predicate tree.
type Where struct {
	q     *Query
	terms []*rql.Term
	preds []Predicate
}

// Name implements clause.
func (w *Where) Name() string { return "where" }

// Functions returns the Where vocabulary.
func (w *Where) Functions() []string { return whereFunctions }

// Terms returns the accepted top-level terms, after rewriting.
func (w *Where) Terms() []*rql.Term { return w.terms }

// Predicates returns one predicate per accepted term.
func (w *Where) Predicates() []Predicate { return w.preds }

func (w *Where) accept(t *rql.Term) error {
	nv, no := len(w.q.values), len(w.q.originals)
	p, err := w.build(t)
	if err != nil {
		w.q.values, w.q.originals = w.q.values[:nv], w.q.originals[:no]
		return err
	}
	w.terms = append(w.terms, t)
	w.preds = append(w.preds, p)
	return nil
}

func (w *Where) build(t *rql.Term) (Predicate, error) {
	op := strings.ToLower(t.Token())
	if !containsFold(whereFunctions, op) {
		return nil, &UnsupportedError{Function: t.Token(), Message: "not a filter function"}
	}

	switch op {
	case "and", "or":
		if t.Len() == 0 {
			return nil, invalid(op, "", "needs at least one condition")
		}
		children := make([]Predicate, 0, t.Len())
		for _, c := range t.Terms() {
			if c.IsLeaf() {
				return nil, invalid(op, c.Token(), "expected a condition")
			}
			p, err := w.build(c)
			if err != nil {
				return nil, err
			}
			children = append(children, p)
		}
		if op == "and" {
			return And{Predicates: children}, nil
		}
		return Or{Predicates: children}, nil
	case "not":
		if t.Len() != 1 || t.Child(0).IsLeaf() {
			return nil, invalid(op, "", "needs exactly one condition")
		}
		p, err := w.build(t.Child(0))
		if err != nil {
			return nil, err
		}
		return Not{Predicate: p}, nil
	case "_key":
		return w.key(t)
	}
	return w.compare(t)
}

func (w *Where) compare(t *rql.Term) (Predicate, error) {
	if t.Len() == 0 {
		return nil, invalid(t.Token(), "", "missing column")
	}
	if !t.Child(0).IsLeaf() {
		return nil, invalid(t.Token(), t.Child(0).String(), "first argument must be a column")
	}
	rewrite(t)
	op := strings.ToLower(t.Token())

	col, err := w.q.Resolve(t.Child(0).Value())
	if err != nil {
		return nil, err
	}

	values := t.Terms()[1:]
	switch op {
	case "n", "nn", "emp", "nemp":
		if len(values) > 0 {
			return nil, invalid(op, col.Property.Name, "takes no values")
		}
	case "in", "out":
		if len(values) == 0 {
			return nil, invalid(op, col.Property.Name, "needs at least one value")
		}
	default:
		if len(values) != 1 {
			return nil, invalid(op, col.Property.Name, "needs exactly one value")
		}
	}

	cmp := Compare{Op: op, Column: col}
	for _, v := range values {
		if !v.IsLeaf() {
			return nil, invalid(op, v.String(), "value must be a literal")
		}
		var arg Arg
		if patternOps[op] {
			arg = w.q.bindValue(v.Value(), v.Value())
		} else if arg, err = w.q.bind(col.Property, v.Value()); err != nil {
			return nil, err
		}
		cmp.Args = append(cmp.Args, arg)
	}
	return cmp, nil
}

// key expands _key(k1,k2,...) into primary-index equalities.
func (w *Where) key(t *rql.Term) (Predicate, error) {
	pk, ok := w.q.collection.PrimaryIndex()
	if !ok {
		return nil, invalid("_key", "", "%s has no primary index", w.q.collection.Name)
	}
	props := w.q.collection.IndexProperties(pk)
	if t.Len() == 0 {
		return nil, invalid("_key", "", "needs at least one key")
	}

	var alts []Predicate
	for _, kt := range t.Terms() {
		if !kt.IsLeaf() {
			return nil, invalid("_key", kt.String(), "key must be a literal")
		}
		parts, err := schema.DecodeKey(kt.Value())
		if err != nil {
			return nil, invalid("_key", kt.Value(), "%v", err)
		}
		if len(parts) != len(props) {
			return nil, invalid("_key", kt.Value(), "expected %d key values, got %d", len(props), len(parts))
		}
		var conj []Predicate
		for i, p := range props {
			arg, err := w.q.bind(p, parts[i])
			if err != nil {
				return nil, err
			}
			conj = append(conj, Compare{Op: "eq", Column: w.q.column(p), Args: []Arg{arg}})
		}
		if len(conj) == 1 {
			alts = append(alts, conj[0])
		} else {
			alts = append(alts, And{Predicates: conj})
		}
	}
	if len(alts) == 1 {
		return alts[0], nil
	}
	return Or{Predicates: alts}, nil
}

// rewrite normalises a comparison term in place:
//   - eq/ne with several values become in/out
//   - eq/ne with an unquoted null become n/nn
//   - eq with an unquoted * becomes like
//   - like with a wildcard only at the edges becomes sw, ew or w,
//     unless the rest of the pattern holds % or _
func rewrite(t *rql.Term) {
	op := strings.ToLower(t.Token())
	if op != t.Token() {
		t.SetToken(op)
	}
	switch op {
	case "eq", "ne":
		switch {
		case t.Len() > 2:
			t.SetToken(map[string]string{"eq": "in", "ne": "out"}[op])
		case t.Len() == 2 && t.Child(1).IsLeaf() && !t.Child(1).IsQuoted():
			v := t.Child(1).Token()
			if strings.EqualFold(v, "null") {
				t.SetToken(map[string]string{"eq": "n", "ne": "nn"}[op])
				t.Remove(1)
			} else if op == "eq" && strings.Contains(v, "*") {
				t.SetToken("like")
				rewriteLike(t)
			}
		}
	case "like":
		rewriteLike(t)
	}
}

func rewriteLike(t *rql.Term) {
	if t.Len() != 2 || !t.Child(1).IsLeaf() {
		return
	}
	v := t.Child(1).Value()
	if !strings.Contains(v, "*") {
		return
	}

	core := v
	lead := strings.HasPrefix(core, "*")
	if lead {
		core = core[1:]
	}
	trail := strings.HasSuffix(core, "*")
	if trail {
		core = core[:len(core)-1]
	}

	op := "like"
	switch {
	case core == "" || strings.ContainsAny(core, "*%_"):
		core = strings.ReplaceAll(v, "*", "%")
	case lead && trail:
		op = "w"
	case lead:
		op = "ew"
	case trail:
		op = "sw"
	}
	t.SetToken(op)
	t.Replace(1, rql.Quoted(core))
}
