package core

import "github.com/recflow/recflow/pkg/utils"

// Item 是推荐链路中的统一承载结构：候选商品、分数、元信息、标签。
// ID 为商品 ID（10 位字母数字）；Score 用于排序决策；
// Labels 用于解释与策略驱动（召回来源、融合权重等）。
type Item struct {
	ID     string
	Score  float64
	Source string // 产生该候选的来源名称（vector / rules / trending / search / diverse ...）
	Meta   map[string]any
	Labels map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:     id,
		Score:  0,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// NewScoredItem 创建带初始分数与来源的 Item，召回源的常用入口。
func NewScoredItem(id string, score float64, source string) *Item {
	it := NewItem(id)
	it.Score = score
	it.Source = source
	return it
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}
