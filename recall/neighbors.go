package recall

import (
	"context"

	"github.com/recflow/recflow/core"
)

// Neighbors 是内容相似召回源：取锚点商品在向量索引中的 Top-K 近邻。
// 锚点来自 rctx.Params["anchor_product_id"]；锚点缺失或未被索引
// 收录时返回空结果，交给上层走规则/热门兜底。
type Neighbors struct {
	Index core.VectorIndex
	K     int
}

func (s *Neighbors) Name() string { return "recall.neighbors" }

func (s *Neighbors) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	anchor := rctx.ParamString("anchor_product_id")
	if anchor == "" {
		return nil, nil
	}
	k := s.K
	if k <= 0 {
		k = 10
	}
	neighbors, err := s.Index.Neighbors(ctx, anchor, k)
	if err != nil {
		return nil, err
	}
	items := make([]*core.Item, 0, len(neighbors))
	for _, nb := range neighbors {
		items = append(items, core.NewScoredItem(nb.ID, nb.Score, "vector"))
	}
	return items, nil
}

var _ Source = (*Neighbors)(nil)
