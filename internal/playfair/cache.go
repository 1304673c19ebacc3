package playfair

import (
	"container/list"
	"sync"
)

type cacheKey struct {
	keyword string
	grid    Grid // set only for ciphers built with NewFromGrid
	foldJ   bool
	filler  rune
}

type cacheEntry struct {
	key    cacheKey
	cipher *Cipher
}

// Cache keeps recently used ciphers so that repeated messages under the same
// keyword reuse one key square. It evicts the least recently used entry once
// full and is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	max     int
	order   *list.List
	entries map[cacheKey]*list.Element
	base    []Option
}

// NewCache returns a cache holding at most max ciphers. base options are
// applied before the per-call options of Get.
func NewCache(max int, base ...Option) *Cache {
	if max <= 0 {
		max = 64
	}
	return &Cache{
		max:     max,
		order:   list.New(),
		entries: make(map[cacheKey]*list.Element),
		base:    base,
	}
}

// Get returns the cipher for keyword, building it on a miss. Build errors
// are not cached.
func (c *Cache) Get(keyword string, opts ...Option) (*Cipher, error) {
	all, key := c.resolve(opts)
	key.keyword = keyword
	return c.lookup(key, func() (*Cipher, error) { return New(keyword, all...) })
}

// GetGrid is Get for a caller supplied key square; see NewFromGrid.
func (c *Cache) GetGrid(g Grid, opts ...Option) (*Cipher, error) {
	all, key := c.resolve(opts)
	key.grid = g
	return c.lookup(key, func() (*Cipher, error) { return NewFromGrid(g, all...) })
}

func (c *Cache) resolve(opts []Option) ([]Option, cacheKey) {
	all := make([]Option, 0, len(c.base)+len(opts))
	all = append(all, c.base...)
	all = append(all, opts...)

	o := defaultOptions()
	for _, opt := range all {
		opt(&o)
	}
	return all, cacheKey{foldJ: o.foldJ, filler: o.filler}
}

func (c *Cache) lookup(key cacheKey, build func() (*Cipher, error)) (*Cipher, error) {
	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		cached := el.Value.(*cacheEntry).cipher
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	built, err := build()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*cacheEntry).cipher, nil
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, cipher: built})
	for c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
	return built, nil
}

// Len reports the number of cached ciphers.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
