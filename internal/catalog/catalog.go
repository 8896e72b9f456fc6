// Package catalog holds the most recently fetched product catalog.
// The cache is read-only to the rest of the core: it is populated by a fetch
// and replaced wholesale, never mutated line by line.
package catalog

import (
	"sync"

	"storefront/internal/model"
)

// Cache is an id-indexed snapshot of the product catalog.
// Safe for concurrent use; reads vastly outnumber writes.
type Cache struct {
	mu       sync.RWMutex
	products []model.Product
	byID     map[string]model.Product
}

// NewCache returns an empty catalog cache.
func NewCache() *Cache {
	return &Cache{byID: make(map[string]model.Product)}
}

// Replace swaps the whole snapshot for the given products.
func (c *Cache) Replace(products []model.Product) {
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = products
	c.byID = byID
}

// All returns the current snapshot in fetch order.
// Callers must not mutate the returned slice.
func (c *Cache) All() []model.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.products
}

// Get looks up a product by ID.
func (c *Cache) Get(id string) (model.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[id]
	return p, ok
}

// Len returns the number of products in the snapshot.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}
