package store

import (
	"sync"
	"time"

	"github.com/levutuan/tragia/internal/catalog"
)

// DefaultCacheTTL bounds how long a product snapshot may serve queries
// before the store is re-scanned.
const DefaultCacheTTL = 5 * time.Second

// Cache is a short-lived in-memory snapshot of the product collection. It
// sits in front of the persistent store so a burst of keystroke queries does
// not re-scan Pebble every time. Every mutation path must call Invalidate
// before returning, so the next read never observes stale candidates.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	products  []catalog.Product
	fetchedAt time.Time
	valid     bool
}

// NewCache builds a snapshot cache. now may be nil, in which case time.Now
// is used; tests inject a fake clock to assert expiry deterministically.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{ttl: ttl, now: now}
}

// Get returns the cached snapshot when fresh, otherwise calls load and
// caches its result. The returned slice is shared and must be treated as
// read-only by callers.
func (c *Cache) Get(load func() ([]catalog.Product, error)) ([]catalog.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.products, nil
	}

	products, err := load()
	if err != nil {
		return nil, err
	}
	c.products = products
	c.fetchedAt = c.now()
	c.valid = true
	return products, nil
}

// Invalidate drops the snapshot so the next Get reloads from the store.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.products = nil
	c.mu.Unlock()
}
