package recall

import (
	"context"

	"github.com/recflow/recflow/core"
)

// Diverse 是多样性召回源：从目录均匀随机采样，
// 给个性化结果注入探索流量，缓解信息茧房。
type Diverse struct {
	Catalog core.Catalog
	Limit   int
}

func (s *Diverse) Name() string { return "recall.diverse" }

func (s *Diverse) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	limit := s.Limit
	if limit <= 0 {
		limit = 10
	}
	products, err := s.Catalog.RandomSample(ctx, limit)
	if err != nil {
		return nil, err
	}
	return productItems(products, "diverse"), nil
}

var _ Source = (*Diverse)(nil)
