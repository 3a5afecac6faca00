package geo

import (
	"container/list"
	"sync"
	"time"
)

const (
	cacheSize = 4096
	cacheTTL  = time.Hour
)

// CachedResolver memoizes lookups from an underlying Resolver. Threat
// traffic tends to hammer the same handful of addresses, so repeated
// ingests skip the database read.
type CachedResolver struct {
	resolver Resolver
	cache    *lookupCache
}

func NewCachedResolver(r Resolver) *CachedResolver {
	return &CachedResolver{
		resolver: r,
		cache:    newLookupCache(cacheSize, cacheTTL),
	}
}

func (c *CachedResolver) Resolve(addr string) Result {
	if res, ok := c.cache.get(addr); ok {
		return res
	}
	res := c.resolver.Resolve(addr)
	c.cache.set(addr, res)
	return res
}

// lookupCache is an LRU cache with per-entry TTL. Lookups mutate
// recency, so reads take the same lock as writes.
type lookupCache struct {
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	items   map[string]*cacheItem
	lruList *list.List
}

type cacheItem struct {
	addr      string
	result    Result
	element   *list.Element
	expiresAt time.Time
}

func newLookupCache(maxSize int, ttl time.Duration) *lookupCache {
	return &lookupCache{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		items:   make(map[string]*cacheItem),
		lruList: list.New(),
	}
}

func (c *lookupCache) get(addr string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[addr]
	if !ok {
		return Result{}, false
	}
	if c.now().After(item.expiresAt) {
		c.removeItem(item)
		return Result{}, false
	}
	c.lruList.MoveToFront(item.element)
	return item.result, true
}

func (c *lookupCache) set(addr string, res Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, ok := c.items[addr]; ok {
		item.result = res
		item.expiresAt = c.now().Add(c.ttl)
		c.lruList.MoveToFront(item.element)
		return
	}

	item := &cacheItem{
		addr:      addr,
		result:    res,
		expiresAt: c.now().Add(c.ttl),
	}
	item.element = c.lruList.PushFront(item)
	c.items[addr] = item

	if len(c.items) > c.maxSize {
		c.evictOldest()
	}
}

func (c *lookupCache) evictOldest() {
	oldest := c.lruList.Back()
	if oldest == nil {
		return
	}
	c.removeItem(oldest.Value.(*cacheItem))
}

func (c *lookupCache) removeItem(item *cacheItem) {
	delete(c.items, item.addr)
	c.lruList.Remove(item.element)
}

func (c *lookupCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
