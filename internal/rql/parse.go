package rql

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Parse converts an RQL string into its top-level Terms.
//
// Call tokens become internal nodes whose children are parsed
// recursively; all other tokens become leaves. Parsing is deterministic:
// the same input always yields structurally equal trees.
func Parse(query string) ([]*Term, error) {
	tokens, err := Tokenize(query)
	if err != nil {
		return nil, err
	}

	p := &parser{input: query, tokens: tokens}
	var terms []*Term
	for p.pos < len(p.tokens) {
		t, err := p.parse()
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, nil
}

// ParseTerm parses a string that must contain exactly one top-level Term.
func ParseTerm(query string) (*Term, error) {
	terms, err := Parse(query)
	if err != nil {
		return nil, err
	}
	if len(terms) != 1 {
		return nil, &SyntaxError{
			Input:   query,
			Message: fmt.Sprintf("expected one term, found %d", len(terms)),
		}
	}
	return terms[0], nil
}

// MustParseTerm is like ParseTerm but panics on error.
// Intended for tests and package-level fixtures.
func MustParseTerm(query string) *Term {
	t, err := ParseTerm(query)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	input  string
	tokens []Token
	pos    int
}

func (p *parser) parse() (*Term, error) {
	tok := p.tokens[p.pos]
	p.pos++

	switch tok.Kind {
	case Literal:
		return Leaf(tok.Text), nil
	case Call:
		name := strings.TrimSuffix(tok.Text, "(")
		if name == "" {
			return nil, &SyntaxError{Input: p.input, Offset: tok.Offset, Message: "missing function name before '('"}
		}
		t := &Term{token: name}
		for {
			// Tokenize guarantees every Call has a matching Close.
			if p.tokens[p.pos].Kind == Close {
				p.pos++
				return t, nil
			}
			child, err := p.parse()
			if err != nil {
				return nil, err
			}
			t.Add(child)
		}
	default:
		return nil, &SyntaxError{Input: p.input, Offset: tok.Offset, Message: "unexpected ')'"}
	}
}

// ParseParams converts a URL query string into Terms.
//
// Parameters are processed in order and each becomes one or more Terms:
//
//	name=bob             -> eq(name,bob)
//	include=a,b          -> include(a,b)     when isFunction("include")
//	and(eq(a,1),eq(b,2)) -> and(eq(a,1),eq(b,2))
//	distinct             -> distinct
//
// Keys and values are URL-decoded before parsing. A leading "?" is ignored.
func ParseParams(raw string, isFunction func(name string) bool) ([]*Term, error) {
	raw = strings.TrimPrefix(raw, "?")

	var terms []*Term
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		decoded, err := url.QueryUnescape(part)
		if err != nil {
			return nil, &SyntaxError{Input: raw, Message: fmt.Sprintf("invalid parameter encoding %q", part)}
		}

		key, value, hasValue := strings.Cut(decoded, "=")
		if !hasValue || strings.ContainsAny(key, "(),") {
			parsed, err := Parse(decoded)
			if err != nil {
				return nil, err
			}
			terms = append(terms, parsed...)
			continue
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return nil, &SyntaxError{Input: raw, Message: fmt.Sprintf("missing parameter name in %q", decoded)}
		}

		if isFunction != nil && isFunction(key) {
			call, err := ParseTerm(key + "(" + value + ")")
			if err != nil {
				return nil, err
			}
			terms = append(terms, call)
			continue
		}

		literal, err := paramLiteral(raw, value)
		if err != nil {
			return nil, err
		}
		terms = append(terms, New("eq", Leaf(key), literal))
	}
	return terms, nil
}

// paramLiteral lexes the value of a field=value parameter as one literal.
// Commas and parentheses are taken as text, so a,b stays a single value;
// backslash escapes and quotes follow the usual literal rules.
func paramLiteral(raw, value string) (*Term, error) {
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		switch c := value[i]; c {
		case '\\':
			b.WriteByte(c)
			if i+1 < len(value) {
				i++
				b.WriteByte(value[i])
			}
		case ',', '(', ')':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}

	tokens, err := Tokenize(b.String())
	if err != nil {
		var se *SyntaxError
		if errors.As(err, &se) {
			return nil, &SyntaxError{Input: raw, Message: se.Message}
		}
		return nil, err
	}
	switch len(tokens) {
	case 0:
		return Quoted(""), nil
	case 1:
		return Leaf(tokens[0].Text), nil
	}
	return nil, &SyntaxError{Input: raw, Message: fmt.Sprintf("value %q is not a single literal", value)}
}
