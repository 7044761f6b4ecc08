package recall

import (
	"context"

	"github.com/recflow/recflow/core"
)

// Trending 是热门召回源：按 (评分降序, 评价数降序) 取目录 Top 商品。
// 兜底链路的最后一环；冷启动用户的主力召回。
type Trending struct {
	Catalog core.Catalog
	Limit   int
}

func (s *Trending) Name() string { return "recall.trending" }

func (s *Trending) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	limit := s.Limit
	if limit <= 0 {
		limit = 10
	}
	products, err := s.Catalog.TopRated(ctx, limit)
	if err != nil {
		return nil, err
	}
	return productItems(products, "trending"), nil
}

// productItems 把目录记录转为候选 Item，分数按位次递减保持目录排序。
func productItems(products []*core.Product, source string) []*core.Item {
	items := make([]*core.Item, 0, len(products))
	for i, p := range products {
		it := core.NewScoredItem(p.ID, 1.0-float64(i)/float64(len(products)+1), source)
		it.Meta["product"] = p
		items = append(items, it)
	}
	return items
}

var _ Source = (*Trending)(nil)
