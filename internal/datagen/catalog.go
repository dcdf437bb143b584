package datagen

import "sync"

// Catalog carries canonical IDs from the relational stage to the stages
// that reference them. Only the orchestrator is aware of cross-store
// relationships; seeders read and publish through this registry.
// Safe for concurrent use since stores within a stage run in parallel.
type Catalog struct {
	mu       sync.RWMutex
	userIDs  []string
	products []string
	orders   []string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// PublishUsers records the canonical user IDs.
func (c *Catalog) PublishUsers(ids []string) {
	c.mu.Lock()
	c.userIDs = append([]string(nil), ids...)
	c.mu.Unlock()
}

// PublishProducts records the canonical product IDs.
func (c *Catalog) PublishProducts(ids []string) {
	c.mu.Lock()
	c.products = append([]string(nil), ids...)
	c.mu.Unlock()
}

// PublishOrders records the canonical order IDs.
func (c *Catalog) PublishOrders(ids []string) {
	c.mu.Lock()
	c.orders = append([]string(nil), ids...)
	c.mu.Unlock()
}

// UserIDs returns the published user IDs (never the internal slice).
func (c *Catalog) UserIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.userIDs...)
}

// ProductIDs returns the published product IDs.
func (c *Catalog) ProductIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.products...)
}

// OrderIDs returns the published order IDs.
func (c *Catalog) OrderIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.orders...)
}
