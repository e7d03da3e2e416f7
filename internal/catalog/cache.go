package catalog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Cache is an in-memory snapshot of the template table.
type Cache struct {
	store *Store

	mu       sync.RWMutex
	byKey    map[string]VariantTemplate
	loadedAt time.Time
}

func NewCache(store *Store) *Cache {
	return &Cache{store: store, byKey: make(map[string]VariantTemplate)}
}

// Refresh replaces the snapshot. On error the previous snapshot stays.
func (c *Cache) Refresh(ctx context.Context) error {
	templates, err := c.store.List(ctx)
	if err != nil {
		return err
	}
	byKey := make(map[string]VariantTemplate, len(templates))
	for _, tmpl := range templates {
		byKey[tmpl.Key()] = tmpl
	}

	c.mu.Lock()
	c.byKey = byKey
	c.loadedAt = time.Now()
	c.mu.Unlock()
	return nil
}

func (c *Cache) Template(taskType, variantName string) (VariantTemplate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tmpl, ok := c.byKey[VariantTemplate{TaskType: taskType, VariantName: variantName}.Key()]
	return tmpl, ok
}

func (c *Cache) Templates() []VariantTemplate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]VariantTemplate, 0, len(c.byKey))
	for _, tmpl := range c.byKey {
		out = append(out, tmpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// LoadedAt is zero until the first successful Refresh.
func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}
