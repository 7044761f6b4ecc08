package recall

import (
	"context"

	"github.com/recflow/recflow/core"
	"github.com/recflow/recflow/rules"
)

// Associated 是关联规则召回源：查规则表中前件包含锚点商品的规则，
// 以置信度作为候选分数。常作为向量近邻之后的兜底链路。
type Associated struct {
	Engine        *rules.Engine
	MinConfidence float64
	Limit         int
}

func (s *Associated) Name() string { return "recall.associated" }

func (s *Associated) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	anchor := rctx.ParamString("anchor_product_id")
	if anchor == "" {
		return nil, nil
	}
	scored := s.Engine.Associated(anchor, s.MinConfidence)
	if s.Limit > 0 && len(scored) > s.Limit {
		scored = scored[:s.Limit]
	}
	items := make([]*core.Item, 0, len(scored))
	for _, sc := range scored {
		items = append(items, core.NewScoredItem(sc.ID, sc.Confidence, "rules"))
	}
	return items, nil
}

var _ Source = (*Associated)(nil)
