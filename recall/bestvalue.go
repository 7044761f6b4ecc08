package recall

import (
	"context"

	"github.com/recflow/recflow/core"
)

// BestValue 是高性价比召回源：按折扣率降序取目录 Top 商品。
type BestValue struct {
	Catalog core.Catalog
	Limit   int
}

func (s *BestValue) Name() string { return "recall.best_value" }

func (s *BestValue) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	limit := s.Limit
	if limit <= 0 {
		limit = 10
	}
	products, err := s.Catalog.BestValue(ctx, limit)
	if err != nil {
		return nil, err
	}
	return productItems(products, "best_value"), nil
}

var _ Source = (*BestValue)(nil)
