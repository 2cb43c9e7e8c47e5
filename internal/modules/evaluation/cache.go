package evaluation

import (
	"container/list"
	"sync"

	"github.com/ilramdhan/scene-expr/pkg/expression"
)

// CacheStats tracks cache statistics
type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

type cacheEntry struct {
	key  string
	expr *expression.Expression
}

// Cache keeps preprocessed expressions by plain string, evicting the least
// recently used one past capacity. Expressions are preprocessed before they
// are published, so callers only ever read them.
type Cache struct {
	mu        sync.Mutex
	items     map[string]*list.Element
	evictList *list.List
	capacity  int
	stats     CacheStats
}

// NewCache creates a cache holding at most capacity expressions
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache{
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		capacity:  capacity,
	}
}

// GetOrPreprocess returns the cached expression for plain, preprocessing and
// caching it on a miss. Expressions that fail to preprocess are not cached.
func (c *Cache) GetOrPreprocess(plain string, scene expression.Scene) (*expression.Expression, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[plain]; ok {
		c.evictList.MoveToFront(el)
		c.stats.Hits++
		return el.Value.(*cacheEntry).expr, nil
	}
	c.stats.Misses++

	e := expression.New(plain)
	if err := e.Preprocess(scene); err != nil {
		return nil, err
	}
	c.insert(plain, e)
	return e, nil
}

// GetOrCreate returns the cached expression for plain, creating it without
// preprocessing on a miss
func (c *Cache) GetOrCreate(plain string) *expression.Expression {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[plain]; ok {
		c.evictList.MoveToFront(el)
		c.stats.Hits++
		return el.Value.(*cacheEntry).expr
	}
	c.stats.Misses++

	e := expression.New(plain)
	c.insert(plain, e)
	return e
}

// insert must be called with mu held
func (c *Cache) insert(key string, e *expression.Expression) {
	c.items[key] = c.evictList.PushFront(&cacheEntry{key: key, expr: e})
	for c.evictList.Len() > c.capacity {
		oldest := c.evictList.Back()
		c.evictList.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
		c.stats.Evictions++
	}
}

// Stats returns a copy of the statistics
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = c.evictList.Len()
	return s
}
