package rql

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrLexical classifies malformed quoting, escaping or nesting.
// Use errors.Is(err, ErrLexical) to detect it through wrapping.
var ErrLexical = errors.New("lexical error")

// SyntaxError reports where and why an RQL string was rejected.
type SyntaxError struct {
	Input   string
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("rql: %s at offset %d in %q", e.Message, e.Offset, e.Input)
}

// Is makes every SyntaxError match ErrLexical.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrLexical
}

// Kind classifies a Token.
type Kind int

const (
	// Literal is a plain or quoted value, e.g. shipCountry or 'France'.
	Literal Kind = iota
	// Call opens a function call; its Text ends with "(", e.g. "eq(".
	Call
	// Close ends the innermost open call; its Text is ")".
	Close
)

func (k Kind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Call:
		return "call"
	case Close:
		return "close"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Token is a single lexical unit of an RQL string.
type Token struct {
	Text   string
	Kind   Kind
	Offset int
}

// Texts returns the text of each token, in order.
func Texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out
}

// Tokenize splits an RQL string into tokens.
//
// The whole input is rejected on an unmatched quote, an unmatched or
// unclosed parenthesis, or a trailing backslash; no partial token list is
// returned in that case.
func Tokenize(input string) ([]Token, error) {
	t := &tokenizer{input: input, start: -1}
	if err := t.run(); err != nil {
		return nil, err
	}
	return t.tokens, nil
}

type tokenizer struct {
	input  string
	tokens []Token

	buf   strings.Builder
	keep  int // buf length through the last significant rune
	start int // input offset of the first significant rune, -1 when empty

	opens []int // offsets of currently open "("
}

func (t *tokenizer) run() error {
	var quote rune
	quoteAt := 0

	for i := 0; i < len(t.input); {
		r, size := utf8.DecodeRuneInString(t.input[i:])

		if r == '\\' {
			if i+size >= len(t.input) {
				return t.fail(i, "dangling escape")
			}
			next, nsize := utf8.DecodeRuneInString(t.input[i+size:])
			t.significant(i, next)
			i += size + nsize
			continue
		}

		if quote != 0 {
			t.significant(i, r)
			if r == quote {
				quote = 0
			}
			i += size
			continue
		}

		switch {
		case r == '\'' || r == '"':
			quote = r
			quoteAt = i
			t.significant(i, r)
		case r == '(':
			t.emit(Call, t.text()+"(", i)
			t.opens = append(t.opens, i)
		case r == ')':
			t.flush()
			if len(t.opens) == 0 {
				return t.fail(i, "unmatched ')'")
			}
			t.opens = t.opens[:len(t.opens)-1]
			t.emit(Close, ")", i)
		case r == ',':
			t.flush()
		case unicode.IsSpace(r):
			// Only kept when followed by something significant.
			if t.buf.Len() > 0 {
				t.buf.WriteRune(r)
			}
		default:
			t.significant(i, r)
		}
		i += size
	}

	if quote != 0 {
		return t.fail(quoteAt, fmt.Sprintf("unmatched quote %c", quote))
	}
	if len(t.opens) > 0 {
		return t.fail(t.opens[len(t.opens)-1], "unclosed '('")
	}
	t.flush()
	return nil
}

func (t *tokenizer) significant(offset int, r rune) {
	if t.start < 0 {
		t.start = offset
	}
	t.buf.WriteRune(r)
	t.keep = t.buf.Len()
}

// text returns the pending token text and resets the buffer.
func (t *tokenizer) text() string {
	s := t.buf.String()[:t.keep]
	t.buf.Reset()
	t.keep = 0
	return s
}

func (t *tokenizer) flush() {
	offset := t.start
	if s := t.text(); s != "" {
		t.tokens = append(t.tokens, Token{Text: s, Kind: Literal, Offset: offset})
	}
	t.start = -1
}

func (t *tokenizer) emit(kind Kind, text string, offset int) {
	if kind == Call && t.start >= 0 {
		offset = t.start
	}
	t.tokens = append(t.tokens, Token{Text: text, Kind: kind, Offset: offset})
	t.start = -1
}

func (t *tokenizer) fail(offset int, msg string) error {
	t.tokens = nil
	return &SyntaxError{Input: t.input, Offset: offset, Message: msg}
}
