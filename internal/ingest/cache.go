package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long an ingestion result stays valid.
const DefaultCacheTTL = time.Hour

// Cache memoizes ingestion results by document fingerprint.
//
// Only the most recent document is kept: supplying a different document
// drops every earlier entry. Entries expire after the TTL. Failed
// ingestions are not cached. Callers always receive a private clone, so
// edits to a returned ledger never leak into the cache.
type Cache struct {
	pipeline *Pipeline
	entries  *expirable.LRU[string, *Result]
	group    singleflight.Group
	now      func() time.Time

	mu      sync.Mutex
	current string
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCacheClock sets the evaluation instant passed to the pipeline, which
// fixes days open for still-open applications. Defaults to time.Now.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache creates a cache in front of p.
func NewCache(p *Pipeline, ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &Cache{
		pipeline: p,
		entries:  expirable.NewLRU[string, *Result](1, nil, ttl),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the ingestion result for doc, running the pipeline on a
// miss. hit reports whether the result came from the cache.
func (c *Cache) Load(ctx context.Context, doc Document) (res *Result, hit bool, err error) {
	key := doc.Fingerprint()

	c.mu.Lock()
	if c.current != key {
		c.entries.Purge()
		c.current = key
	}
	c.mu.Unlock()

	if cached, ok := c.entries.Get(key); ok {
		return cached.Clone(), true, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		r, err := c.pipeline.Ingest(ctx, doc, c.now())
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.current == key {
			c.entries.Add(key, r)
		}
		c.mu.Unlock()
		return r, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*Result).Clone(), false, nil
}

// Invalidate drops every cached result.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
	c.current = ""
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.entries.Len()
}
