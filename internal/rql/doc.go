// Package rql parses the Resource Query Language used to filter, sort,
// page and project collections.
//
// RQL is a function-call grammar. A query is a comma-separated list of
// terms, each either a literal or a call whose arguments are themselves
// terms:
//
//	and(eq(shipCountry,France),gt(freight,10)),sort(-orderDate),limit(25)
//
// Quoted segments ('...' or "...") are atomic and keep their quotes.
// A backslash escapes the next character and is removed from the token,
// so \, \( \) \' \" and \\ can appear inside literals.
//
// The package has three layers:
//
//	[query string] -> Tokenize -> []Token -> Parse -> []*Term
//
// ParseParams additionally accepts the URL query-string form
// (name=bob&limit=10&include=a,b) and converts each parameter into a Term.
//
// Terms are plain trees with parent back-references. Clause builders in
// the query package classify and occasionally rewrite them; use Clone
// before mutating a tree that is shared, for example one returned from
// the parse cache.
package rql
