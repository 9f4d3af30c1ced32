package spacetraveling

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/eringen/spacetraveling/metrics"
	"github.com/eringen/spacetraveling/posts"
)

// PostCache is an in-memory cache of published listings and posts with TTL.
// Requests made with a preview ref are never cached.
type PostCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	gen     uint64 // bumped by Invalidate
	ttl     time.Duration
	service *posts.Service
	metrics metrics.Recorder
	now     func() time.Time
}

type cacheEntry struct {
	value   interface{}
	fetched time.Time
}

// NewPostCache creates a PostCache backed by the given Service.
func NewPostCache(s *posts.Service, ttl time.Duration, rec metrics.Recorder) *PostCache {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &PostCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		service: s,
		metrics: rec,
		now:     time.Now,
	}
}

// Invalidate clears the cache so the next read triggers a fresh load.
// Loads already running when it is called are not stored.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.gen++
	c.mu.Unlock()
}

// Sweep drops expired entries.
func (c *PostCache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, e := range c.entries {
		if now.Sub(e.fetched) >= c.ttl {
			delete(c.entries, key)
		}
	}
}

// Len reports the number of entries held, expired or not.
func (c *PostCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// lookup returns the fresh entry under key, if any, and the generation the
// cache was in when it looked.
func (c *PostCache) lookup(key string) (interface{}, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.fetched) >= c.ttl {
		return nil, c.gen, false
	}
	return e.value, c.gen, true
}

// store keeps v unless the cache was invalidated after gen was read.
func (c *PostCache) store(key string, v interface{}, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.entries[key] = cacheEntry{value: v, fetched: c.now()}
}

// cached returns the fresh entry under key or loads and stores it. Loads
// run outside the lock; concurrent misses may each hit the CMS once.
func cached[T any](c *PostCache, kind, key, ref string, load func() (T, error)) (T, error) {
	if ref != "" {
		return load()
	}
	v, gen, ok := c.lookup(key)
	if ok {
		c.metrics.IncCacheResult(kind, true)
		return v.(T), nil
	}
	c.metrics.IncCacheResult(kind, false)
	loaded, err := load()
	if err != nil {
		return loaded, err
	}
	c.store(key, loaded, gen)
	return loaded, nil
}

// Pages returns the first n listing pages accumulated. The returned
// listing is a copy the caller may extend.
func (c *PostCache) Pages(ctx context.Context, ref string, n int) (*posts.Listing, error) {
	l, err := cached(c, "listing", "pages:"+strconv.Itoa(n), ref, func() (*posts.Listing, error) {
		return c.service.Pages(ctx, ref, n)
	})
	if err != nil {
		return nil, err
	}
	return cloneListing(l), nil
}

// Page returns a listing holding only page n. Published pages are cut from
// the cached first n pages, so cursor is only followed for a preview ref.
func (c *PostCache) Page(ctx context.Context, ref, cursor string, n int) (*posts.Listing, error) {
	if ref != "" {
		return c.service.Page(ctx, cursor)
	}
	l, err := c.Pages(ctx, ref, n)
	if err != nil {
		return nil, err
	}
	if l.Pages < n {
		return nil, posts.ErrNoMorePages
	}
	start := min((n-1)*c.service.PageSize(), len(l.Posts))
	l.Posts = l.Posts[start:]
	l.Pages = 1
	return l, nil
}

// Post returns a single post by UID.
func (c *PostCache) Post(ctx context.Context, uid, ref string) (*posts.Detail, error) {
	return cached(c, "post", "post:"+uid, ref, func() (*posts.Detail, error) {
		return c.service.Post(ctx, uid, ref)
	})
}

// All returns every post, oldest first. The slice must not be modified.
func (c *PostCache) All(ctx context.Context, ref string) ([]posts.Summary, error) {
	return cached(c, "all", "all", ref, func() ([]posts.Summary, error) {
		return c.service.All(ctx, ref)
	})
}

// Neighbors resolves the posts around uid from the cached full listing.
func (c *PostCache) Neighbors(ctx context.Context, uid, ref string) (posts.Neighbors, error) {
	all, err := c.All(ctx, ref)
	if err != nil {
		return posts.Neighbors{}, err
	}
	return posts.Adjacent(all, uid), nil
}

func cloneListing(l *posts.Listing) *posts.Listing {
	cp := *l
	cp.Posts = append([]posts.Summary(nil), l.Posts...)
	return &cp
}
