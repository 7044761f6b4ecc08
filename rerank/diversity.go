package rerank

import (
	"context"

	"github.com/recflow/recflow/core"
	"github.com/recflow/recflow/pipeline"
)

// Diversity 是一个类目多样性重排节点：限制同一类目的连续曝光数。
// 类目来源优先级：
// - label["category"].Value
// - meta["product"].(*core.Product).SubCategory
type Diversity struct {
	LabelKey    string // 默认 "category"
	PerCategory int    // 每个类目最多保留数（默认 2）
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.LabelKey
	if key == "" {
		key = "category"
	}
	perCategory := n.PerCategory
	if perCategory <= 0 {
		perCategory = 2
	}

	count := make(map[string]int, 32)
	out := make([]*core.Item, 0, len(items))

	for _, it := range items {
		if it == nil {
			continue
		}

		cate := ""
		if it.Labels != nil {
			if lbl, ok := it.Labels[key]; ok {
				cate = lbl.Value
			}
		}
		if cate == "" && it.Meta != nil {
			if p, ok := it.Meta["product"].(*core.Product); ok {
				cate = p.SubCategory
			}
		}

		if cate == "" {
			out = append(out, it)
			continue
		}
		if count[cate] >= perCategory {
			continue
		}
		count[cate]++
		out = append(out, it)
	}

	return out, nil
}

var _ pipeline.Node = (*Diversity)(nil)
