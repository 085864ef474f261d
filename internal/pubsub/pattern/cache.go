package pattern

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of compiled patterns kept by NewCache
// callers that do not pick a size.
const DefaultCacheSize = 256

// Cache keeps recently compiled patterns keyed by their source string.
// It is safe for concurrent use.
type Cache struct {
	wildcard rune
	lru      *lru.Cache[string, *Pattern]
}

// NewCache creates a cache holding up to size patterns.
// A size of zero or less disables caching; Get then compiles on every call.
func NewCache(size int, wildcard rune) (*Cache, error) {
	c := &Cache{wildcard: wildcard}
	if size <= 0 {
		return c, nil
	}

	l, err := lru.New[string, *Pattern](size)
	if err != nil {
		return nil, err
	}
	c.lru = l
	return c, nil
}

// Get returns the compiled form of raw, compiling it on a miss.
func (c *Cache) Get(raw string) *Pattern {
	if c.lru == nil {
		return Compile(raw, c.wildcard)
	}
	if p, ok := c.lru.Get(raw); ok {
		return p
	}
	p := Compile(raw, c.wildcard)
	c.lru.Add(raw, p)
	return p
}

// Wildcard returns the wildcard character patterns are compiled with.
func (c *Cache) Wildcard() rune {
	return c.wildcard
}

// Len returns the number of cached patterns.
func (c *Cache) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

// Purge drops every cached pattern.
func (c *Cache) Purge() {
	if c.lru != nil {
		c.lru.Purge()
	}
}
