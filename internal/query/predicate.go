package query

// Predicate is a resolved Where condition.
//
// This is a sealed interface: only types in this package implement it, so
// dialect compilers can switch over it exhaustively.
//
// Predicate types:
//   - Compare: a column, an operator and its values
//   - And, Or: combinators over child predicates
//   - Not: negation of one predicate
type Predicate interface {
	predicateNode()
}

// Arg is one bound value of a comparison.
type Arg struct {
	// Index is the position in Query.Values, or -1 for values that are
	// not part of the Query's bind lists, such as cursor keys.
	Index int
	// Value is the cast value.
	Value any
	// Raw is the unquoted text the value was cast from.
	Raw string
}

// Compare applies Op to Column and Args.
//
// Op is a Where function name after rewriting: eq, ne, lt, le, gt, ge,
// in, out, like, sw, ew, w, wo, n, nn, emp or nemp. For the pattern
// operators the single Arg holds the bare text: the prefix for sw, the
// suffix for ew, the fragment for w and wo, and a %-pattern for like.
type Compare struct {
	Op     string
	Column Column
	Args   []Arg
}

func (Compare) predicateNode() {}

// And is true when every child is true. Empty is true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is true when any child is true.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Not negates Predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// Walk calls fn for p and every nested predicate, depth first in
// declaration order.
func Walk(p Predicate, fn func(Predicate)) {
	if p == nil {
		return
	}
	fn(p)
	switch v := p.(type) {
	case And:
		for _, c := range v.Predicates {
			Walk(c, fn)
		}
	case Or:
		for _, c := range v.Predicates {
			Walk(c, fn)
		}
	case Not:
		Walk(v.Predicate, fn)
	}
}
