package recommend

import (
	"context"

	"github.com/recflow/recflow/core"
	"github.com/recflow/recflow/recall"
	"github.com/recflow/recflow/rules"
)

// clickedSource 是点击信号的召回链：向量近邻优先，近邻为空时
// 降级到关联规则。两级都空才返回空，由上层决定热门兜底。
type clickedSource struct {
	index         core.VectorIndex
	engine        *rules.Engine
	k             int
	minConfidence float64
}

func (s *clickedSource) Name() string { return "clicked" }

func (s *clickedSource) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	anchor := rctx.ParamString("anchor_product_id")
	if anchor == "" {
		return nil, nil
	}
	neighbors := &recall.Neighbors{Index: s.index, K: s.k}
	items, err := neighbors.Recall(ctx, rctx)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		return items, nil
	}
	associated := &recall.Associated{Engine: s.engine, MinConfidence: s.minConfidence, Limit: s.k}
	return associated.Recall(ctx, rctx)
}

// renamed 给召回源换一个融合信号名（recall_source label 取 Name()）。
type renamed struct {
	name string
	src  recall.Source
}

func (s *renamed) Name() string { return s.name }

func (s *renamed) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	return s.src.Recall(ctx, rctx)
}

var (
	_ recall.Source = (*clickedSource)(nil)
	_ recall.Source = (*renamed)(nil)
)
