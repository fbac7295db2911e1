package rql

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheSize bounds the number of distinct query strings kept by ParseCached.
const CacheSize = 1024

var (
	cacheOnce sync.Once
	cache     *lru.Cache[string, []*Term]
)

func termCache() *lru.Cache[string, []*Term] {
	cacheOnce.Do(func() {
		c, err := lru.New[string, []*Term](CacheSize)
		if err != nil {
			// Only reachable with a non-positive size.
			panic(err)
		}
		cache = c
	})
	return cache
}

// ParseCached is Parse backed by a process-wide LRU cache.
//
// The returned Terms are deep copies, so callers may rewrite them freely.
// Failed parses are not cached. Safe for concurrent use.
func ParseCached(query string) ([]*Term, error) {
	c := termCache()
	if terms, ok := c.Get(query); ok {
		return cloneAll(terms), nil
	}

	terms, err := Parse(query)
	if err != nil {
		return nil, err
	}
	c.Add(query, terms)
	return cloneAll(terms), nil
}

func cloneAll(terms []*Term) []*Term {
	out := make([]*Term, len(terms))
	for i, t := range terms {
		out[i] = t.Clone()
	}
	return out
}
