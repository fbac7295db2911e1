package rql

import (
	"strings"
)

// Term is a node of a parsed RQL expression.
//
// A Term with children is a function call whose Token is the function
// name; a Term without children is a literal leaf. Quoted leaves keep
// their quotes in Token; use Value for the unquoted text.
//
// The parent pointer is a non-owning back-reference maintained by Add,
// Replace and Remove.
type Term struct {
	token  string
	terms  []*Term
	parent *Term
}

// New builds a Term with the given token and children.
// Children are re-parented to the new Term.
// New panics if token is empty: an empty token is never valid RQL.
func New(token string, children ...*Term) *Term {
	if token == "" {
		panic("rql: empty term token")
	}
	t := &Term{token: token}
	t.Add(children...)
	return t
}

// Leaf builds a literal Term.
func Leaf(token string) *Term {
	return New(token)
}

// Quoted builds a single-quoted literal Term holding value.
func Quoted(value string) *Term {
	return New("'" + value + "'")
}

// Token returns the function name or literal text.
func (t *Term) Token() string { return t.token }

// SetToken replaces the token, e.g. when a builder rewrites like into sw.
func (t *Term) SetToken(token string) {
	if token == "" {
		panic("rql: empty term token")
	}
	t.token = token
}

// Parent returns the enclosing Term, or nil for a top-level Term.
func (t *Term) Parent() *Term { return t.parent }

// Terms returns the children. The slice must not be modified.
func (t *Term) Terms() []*Term { return t.terms }

// Len returns the number of children.
func (t *Term) Len() int { return len(t.terms) }

// Child returns the i-th child, or nil if i is out of range.
func (t *Term) Child(i int) *Term {
	if i < 0 || i >= len(t.terms) {
		return nil
	}
	return t.terms[i]
}

// Last returns the final child, or nil for a leaf.
func (t *Term) Last() *Term {
	return t.Child(len(t.terms) - 1)
}

// IsLeaf reports whether t has no children.
func (t *Term) IsLeaf() bool { return len(t.terms) == 0 }

// IsQuoted reports whether t is a quoted literal.
func (t *Term) IsQuoted() bool {
	return t.IsLeaf() && isQuoted(t.token)
}

// Value returns the token with surrounding quotes removed.
func (t *Term) Value() string {
	if isQuoted(t.token) {
		return t.token[1 : len(t.token)-1]
	}
	return t.token
}

// Is reports whether the token equals s, ignoring case.
func (t *Term) Is(s string) bool {
	return t != nil && strings.EqualFold(t.token, s)
}

// IsAny reports whether the token equals any of tokens, ignoring case.
func (t *Term) IsAny(tokens ...string) bool {
	for _, s := range tokens {
		if t.Is(s) {
			return true
		}
	}
	return false
}

// Add appends children.
func (t *Term) Add(children ...*Term) {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.parent = t
		t.terms = append(t.terms, c)
	}
}

// Replace swaps the i-th child for c.
func (t *Term) Replace(i int, c *Term) {
	t.terms[i].parent = nil
	c.parent = t
	t.terms[i] = c
}

// Remove detaches and returns the i-th child.
func (t *Term) Remove(i int) *Term {
	c := t.terms[i]
	t.terms = append(t.terms[:i:i], t.terms[i+1:]...)
	c.parent = nil
	return c
}

// Clone returns a deep copy of t detached from any parent.
func (t *Term) Clone() *Term {
	c := &Term{token: t.token}
	for _, child := range t.terms {
		c.Add(child.Clone())
	}
	return c
}

// Equal reports whether t and o are structurally identical.
// Tokens are compared exactly; parents are ignored.
func (t *Term) Equal(o *Term) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.token != o.token || len(t.terms) != len(o.terms) {
		return false
	}
	for i := range t.terms {
		if !t.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

// String renders t as RQL. Special characters are escaped so that
// parsing the result yields an equal Term.
func (t *Term) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Term) write(b *strings.Builder) {
	if t.IsLeaf() {
		writeLiteral(b, t.token)
		return
	}
	writeLiteral(b, t.token)
	b.WriteByte('(')
	for i, c := range t.terms {
		if i > 0 {
			b.WriteByte(',')
		}
		c.write(b)
	}
	b.WriteByte(')')
}

func writeLiteral(b *strings.Builder, s string) {
	if isQuoted(s) {
		q := s[0]
		b.WriteByte(q)
		for _, r := range s[1 : len(s)-1] {
			if r == rune(q) || r == '\\' {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
		b.WriteByte(q)
		return
	}
	last := len(s) - 1
	for i, r := range s {
		switch {
		case strings.ContainsRune(`\,()'"`, r):
			b.WriteByte('\\')
		case (i == 0 || i == last) && (r == ' ' || r == '\t'):
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
}

// Walk calls fn for t and every descendant in pre-order.
// Returning false from fn skips that node's children.
func (t *Term) Walk(fn func(*Term) bool) {
	if !fn(t) {
		return
	}
	for _, c := range t.terms {
		c.Walk(fn)
	}
}

func isQuoted(s string) bool {
	if len(s) < 2 {
		return false
	}
	q := s[0]
	return (q == '\'' || q == '"') && s[len(s)-1] == q
}
