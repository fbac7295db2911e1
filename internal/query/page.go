package query

import (
	"math"
	"strconv"
	"strings"

	"github.com/inversion-api/inversion-engine-sub011/internal/rql"
)

var pageFunctions = []string{"limit", "offset", "page", "pageNum", "pageSize", "after"}

// Page collects paging terms and normalises them to a limit and offset.
//
// page(N) with pageSize(S) is the same as limit(S) with offset((N-1)*S).
// An explicit limit wins over pageSize and an explicit offset over page.
type Page struct {
	q     *Query
	terms []*rql.Term

	limit, offset, page, pageSize int
	after                         string
}

// Name implements clause.
func (p *Page) Name() string { return "page" }

// Functions returns the Page vocabulary.
func (p *Page) Functions() []string { return pageFunctions }

// Terms returns the accepted terms.
func (p *Page) Terms() []*rql.Term { return p.terms }

func (p *Page) accept(t *rql.Term) error {
	fn := t.Token()
	if t.Len() != 1 || !t.Child(0).IsLeaf() {
		return invalid(fn, "", "takes exactly one value")
	}
	raw := t.Child(0).Value()

	if strings.EqualFold(fn, "after") {
		if raw == "" {
			return invalid(fn, raw, "empty cursor")
		}
		p.after = raw
		p.terms = append(p.terms, t)
		return nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return invalid(fn, raw, "not an integer")
	}
	switch strings.ToLower(fn) {
	case "limit":
		if n < 1 {
			return invalid(fn, raw, "must be at least 1")
		}
		p.limit = n
	case "pagesize":
		if n < 1 {
			return invalid(fn, raw, "must be at least 1")
		}
		p.pageSize = n
	case "offset":
		if n < 0 {
			return invalid(fn, raw, "must not be negative")
		}
		p.offset = n
	case "page", "pagenum":
		if n < 1 {
			return invalid(fn, raw, "must be at least 1")
		}
		// Limit never exceeds the backend maximum, so this bounds the offset.
		if _, max := p.q.limits(); n-1 > math.MaxInt/max {
			return invalid(fn, raw, "page out of range")
		}
		p.page = n
	}
	p.terms = append(p.terms, t)
	return nil
}

// Limit is the normalised page size, clamped to the backend maximum.
func (p *Page) Limit() int {
	def, max := p.q.limits()
	n := def
	switch {
	case p.limit > 0:
		n = p.limit
	case p.pageSize > 0:
		n = p.pageSize
	}
	if n > max {
		n = max
	}
	return n
}

// Offset is the normalised number of rows to skip.
func (p *Page) Offset() int {
	if p.page > 0 && !p.hasOffset() {
		return (p.page - 1) * p.Limit()
	}
	return p.offset
}

// PageNum is the 1-based page the offset falls on.
func (p *Page) PageNum() int {
	return p.Offset()/p.Limit() + 1
}

// After returns the continuation cursor, if any.
func (p *Page) After() string { return p.after }

func (p *Page) hasOffset() bool {
	for _, t := range p.terms {
		if t.Is("offset") {
			return true
		}
	}
	return false
}
