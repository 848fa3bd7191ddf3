package offline

import (
	"net/http"
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds each named cache when the configured size is unset.
const DefaultCacheSize = 256

// Entry is a stored response. Body is held in full; the origin serves small
// app-shell assets, not media.
type Entry struct {
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// Cache is one named, size-bounded response cache keyed by request URI.
// Least recently used entries are evicted first.
type Cache struct {
	name    string
	entries *lru.Cache[string, Entry]
}

// Name returns the cache's name.
func (c *Cache) Name() string { return c.name }

// Get returns the entry stored for key.
func (c *Cache) Get(key string) (Entry, bool) { return c.entries.Get(key) }

// Put stores e under key, replacing any previous entry.
func (c *Cache) Put(key string, e Entry) { c.entries.Add(key, e) }

// Keys returns the stored keys, oldest first.
func (c *Cache) Keys() []string { return c.entries.Keys() }

// Len returns the number of stored entries.
func (c *Cache) Len() int { return c.entries.Len() }

// Caches is a registry of named caches, searched in creation order by Match.
type Caches struct {
	mu     sync.RWMutex
	size   int
	byName map[string]*Cache
	order  []string
}

// NewCaches returns an empty registry whose caches hold up to size entries each.
func NewCaches(size int) *Caches {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Caches{size: size, byName: make(map[string]*Cache)}
}

// Open returns the named cache, creating it if needed.
func (c *Caches) Open(name string) *Cache {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cache, ok := c.byName[name]; ok {
		return cache
	}
	entries, _ := lru.New[string, Entry](c.size) // size is always positive
	cache := &Cache{name: name, entries: entries}
	c.byName[name] = cache
	c.order = append(c.order, name)
	return cache
}

// Keys returns the cache names in creation order.
func (c *Caches) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.order)
}

// Delete drops the named cache. It reports whether the cache existed.
func (c *Caches) Delete(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byName[name]; !ok {
		return false
	}
	delete(c.byName, name)
	c.order = slices.DeleteFunc(c.order, func(n string) bool { return n == name })
	return true
}

// Match looks key up in every cache and returns the first hit.
func (c *Caches) Match(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, name := range c.order {
		if e, ok := c.byName[name].Get(key); ok {
			return e, true
		}
	}
	return Entry{}, false
}
