package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// EvictReason tells an eviction callback why an entry left the cache.
type EvictReason int

const (
	EvictCapacity EvictReason = iota
	EvictExpired
	EvictDeleted
)

func (r EvictReason) String() string {
	switch r {
	case EvictCapacity:
		return "capacity"
	case EvictExpired:
		return "expired"
	case EvictDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// LRU is a size-bounded cache with per-entry TTL.
// The eviction callback runs with the cache lock released.
type LRU[V any] struct {
	capacity   int
	defaultTTL time.Duration
	onEvict    func(key string, value V, reason EvictReason)
	now        func() time.Time

	mu    sync.Mutex
	items map[string]*entry[V]
	order *list.List // front = most recently used
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	element   *list.Element
}

type evicted[V any] struct {
	key    string
	value  V
	reason EvictReason
}

// NewLRU creates a cache holding at most capacity entries.
func NewLRU[V any](capacity int, defaultTTL time.Duration) *LRU[V] {
	if capacity <= 0 {
		capacity = 1000
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &LRU[V]{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		now:        time.Now,
		items:      make(map[string]*entry[V]),
		order:      list.New(),
	}
}

// OnEvict registers a callback for entries leaving the cache.
func (c *LRU[V]) OnEvict(fn func(key string, value V, reason EvictReason)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get returns a live entry and marks it as recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	e, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		gone := c.removeLocked(e, EvictExpired)
		c.mu.Unlock()
		c.notify(gone)
		return zero, false
	}
	c.order.MoveToFront(e.element)
	value := e.value
	c.mu.Unlock()
	return value, true
}

// Set stores value under key. A non-positive ttl uses the default TTL.
func (c *LRU[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	var gone []evicted[V]
	c.mu.Lock()
	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = c.now().Add(ttl)
		c.order.MoveToFront(e.element)
		c.mu.Unlock()
		return
	}

	for len(c.items) >= c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		gone = append(gone, c.removeLocked(oldest.Value.(*entry[V]), EvictCapacity))
	}

	e := &entry[V]{key: key, value: value, expiresAt: c.now().Add(ttl)}
	e.element = c.order.PushFront(e)
	c.items[key] = e
	c.mu.Unlock()

	c.notify(gone...)
}

// Delete removes key. It reports whether the key was present.
func (c *LRU[V]) Delete(key string) bool {
	c.mu.Lock()
	e, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return false
	}
	gone := c.removeLocked(e, EvictDeleted)
	c.mu.Unlock()
	c.notify(gone)
	return true
}

// Invalidate removes entries matching pattern.
// Supports * wildcard at the end (e.g., "session:ci-*").
func (c *LRU[V]) Invalidate(pattern string) int {
	if !strings.HasSuffix(pattern, "*") {
		if c.Delete(pattern) {
			return 1
		}
		return 0
	}

	prefix := strings.TrimSuffix(pattern, "*")
	var gone []evicted[V]
	c.mu.Lock()
	for key, e := range c.items {
		if strings.HasPrefix(key, prefix) {
			gone = append(gone, c.removeLocked(e, EvictDeleted))
		}
	}
	c.mu.Unlock()
	c.notify(gone...)
	return len(gone)
}

// CleanupExpired removes every expired entry and returns how many were removed.
func (c *LRU[V]) CleanupExpired() int {
	var gone []evicted[V]
	now := c.now()

	c.mu.Lock()
	for _, e := range c.items {
		if now.After(e.expiresAt) {
			gone = append(gone, c.removeLocked(e, EvictExpired))
		}
	}
	c.mu.Unlock()

	c.notify(gone...)
	return len(gone)
}

// Len returns the number of entries, expired or not.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Keys returns the keys from most to least recently used.
func (c *LRU[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.items))
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[V]).key)
	}
	return keys
}

// Clear drops every entry without calling the eviction callback.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*entry[V])
	c.order.Init()
}

// removeLocked must be called with the lock held.
func (c *LRU[V]) removeLocked(e *entry[V], reason EvictReason) evicted[V] {
	c.order.Remove(e.element)
	delete(c.items, e.key)
	return evicted[V]{key: e.key, value: e.value, reason: reason}
}

func (c *LRU[V]) notify(gone ...evicted[V]) {
	c.mu.Lock()
	fn := c.onEvict
	c.mu.Unlock()
	if fn == nil {
		return
	}
	for _, g := range gone {
		fn(g.key, g.value, g.reason)
	}
}
