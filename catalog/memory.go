package catalog

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/recflow/recflow/core"
)

// MemoryCatalog 是进程内目录实现，测试/开发用。
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]*core.Product
}

func NewMemoryCatalog(products ...*core.Product) *MemoryCatalog {
	c := &MemoryCatalog{products: make(map[string]*core.Product, len(products))}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *MemoryCatalog) Name() string { return "catalog.memory" }

func (c *MemoryCatalog) Close() error { return nil }

func (c *MemoryCatalog) Upsert(_ context.Context, p *core.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
	return nil
}

func (c *MemoryCatalog) GetByIDs(_ context.Context, ids []string) ([]*core.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*core.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *MemoryCatalog) TopRated(_ context.Context, limit int) ([]*core.Product, error) {
	return c.sorted(limit, func(a, b *core.Product) bool {
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.RatingCount != b.RatingCount {
			return a.RatingCount > b.RatingCount
		}
		return a.ID < b.ID
	}, nil)
}

func (c *MemoryCatalog) BestValue(_ context.Context, limit int) ([]*core.Product, error) {
	return c.sorted(limit, func(a, b *core.Product) bool {
		if a.DiscountRatio != b.DiscountRatio {
			return a.DiscountRatio > b.DiscountRatio
		}
		return a.ID < b.ID
	}, nil)
}

func (c *MemoryCatalog) TopInCategory(_ context.Context, category string, limit int) ([]*core.Product, error) {
	return c.sorted(limit, func(a, b *core.Product) bool {
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.ID < b.ID
	}, func(p *core.Product) bool {
		return p.SubCategory == category
	})
}

func (c *MemoryCatalog) RandomSample(_ context.Context, limit int) ([]*core.Product, error) {
	c.mu.RLock()
	all := make([]*core.Product, 0, len(c.products))
	for _, p := range c.products {
		all = append(all, p)
	}
	c.mu.RUnlock()
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (c *MemoryCatalog) SearchByName(_ context.Context, tokens []string, limit int) ([]*core.Product, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	return c.sorted(limit, func(a, b *core.Product) bool {
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.ID < b.ID
	}, func(p *core.Product) bool {
		name := strings.ToLower(p.Name)
		for _, tok := range tokens {
			if !strings.Contains(name, strings.ToLower(tok)) {
				return false
			}
		}
		return true
	})
}

func (c *MemoryCatalog) AllIDs(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.products))
	for id := range c.products {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (c *MemoryCatalog) sorted(limit int, less func(a, b *core.Product) bool, keep func(*core.Product) bool) ([]*core.Product, error) {
	c.mu.RLock()
	out := make([]*core.Product, 0, len(c.products))
	for _, p := range c.products {
		if keep == nil || keep(p) {
			out = append(out, p)
		}
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ core.Catalog = (*MemoryCatalog)(nil)
