// Package rank 实现候选列表的打分与排序节点。
package rank

import (
	"context"
	"sort"

	"github.com/recflow/recflow/core"
	"github.com/recflow/recflow/pipeline"
	"github.com/recflow/recflow/pkg/utils"
)

// 个性化融合的默认权重：点击信号 > 搜索信号 > 探索流量。
const (
	DefaultClickedWeight = 0.5
	DefaultSearchWeight  = 0.4
	DefaultDiverseWeight = 0.1
)

// WeightedList 是参与融合的一路候选及其权重。
type WeightedList struct {
	Name   string // 信号名称（clicked / search / diverse）
	Weight float64
	Items  []*core.Item
}

// Merge 对多路候选做加权融合：
//
//	final(id) = Σ weight_i * score_i(id)
//
// 同一商品出现在多路中时分数累加（权重与顺序无关，融合可交换）；
// 最终按融合分降序，同分按首次出现顺序稳定排列。
// 每个商品带 fusion_signals label 记录贡献来源，用于 explain。
func Merge(lists ...WeightedList) []*core.Item {
	merged := make(map[string]*core.Item)
	var order []string
	for _, list := range lists {
		for _, it := range list.Items {
			if it == nil {
				continue
			}
			got, ok := merged[it.ID]
			if !ok {
				got = core.NewScoredItem(it.ID, 0, "fusion")
				got.Meta = it.Meta
				for k, v := range it.Labels {
					got.PutLabel(k, v)
				}
				merged[it.ID] = got
				order = append(order, it.ID)
			}
			got.Score += list.Weight * it.Score
			got.PutLabel("fusion_signals", utils.Label{Value: list.Name, Source: "rank"})
		}
	}

	out := make([]*core.Item, 0, len(order))
	for _, id := range order {
		out = append(out, merged[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Fusion 是一个 Rank Node：按 recall_source label 把输入候选分路，
// 再按配置权重加权融合。未配置权重的来源按权重 0 处理（仅保序不加分）。
type Fusion struct {
	Weights map[string]float64 // recall_source -> weight
}

func (n *Fusion) Name() string        { return "rank.fusion" }
func (n *Fusion) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *Fusion) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	buckets := make(map[string][]*core.Item)
	var names []string
	for _, it := range items {
		src := ""
		if lbl, ok := it.Labels["recall_source"]; ok {
			src = lbl.Value
		}
		if _, ok := buckets[src]; !ok {
			names = append(names, src)
		}
		buckets[src] = append(buckets[src], it)
	}

	lists := make([]WeightedList, 0, len(names))
	for _, name := range names {
		lists = append(lists, WeightedList{
			Name:   name,
			Weight: n.Weights[name],
			Items:  buckets[name],
		})
	}
	return Merge(lists...), nil
}

var _ pipeline.Node = (*Fusion)(nil)
