package recall

import (
	"context"

	"github.com/recflow/recflow/core"
)

// Category 是类目召回源：对每个配置的子类目取评分 Top 商品。
// 各类目独立失败不影响其他类目（记到结果为空即可）。
type Category struct {
	Catalog    core.Catalog
	Categories []string
	PerLimit   int // 每个类目的商品数
}

func (s *Category) Name() string { return "recall.category" }

func (s *Category) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	perLimit := s.PerLimit
	if perLimit <= 0 {
		perLimit = 5
	}
	var items []*core.Item
	for _, cat := range s.Categories {
		products, err := s.Catalog.TopInCategory(ctx, cat, perLimit)
		if err != nil {
			return nil, err
		}
		for _, it := range productItems(products, "category") {
			it.Meta["category"] = cat
			items = append(items, it)
		}
	}
	return items, nil
}

var _ Source = (*Category)(nil)
