// Package rules 实现基于关联规则的召回支撑：
// FP-Growth 离线挖掘 + 进程内规则表在线查询。
//
// 规则表读多写少：查询走无锁快照，挖掘完成后整表原子换入，
// 挖掘失败旧表保持可用。
package rules

import (
	"sort"
	"sync/atomic"
)

// Rule 是一条关联规则 antecedent => consequent。
type Rule struct {
	Antecedent []string `json:"antecedent"`
	Consequent []string `json:"consequent"`
	Support    float64  `json:"support"`
	Confidence float64  `json:"confidence"`
	Lift       float64  `json:"lift"`
}

// table 是一代只读规则表，按单品前件建倒排。
type table struct {
	rules    []Rule
	byItem   map[string][]int // 前件中的商品 -> 规则下标
	revision int64
}

// Engine 持有当前规则表，实现在线查询。并发读无锁。
type Engine struct {
	tab atomic.Pointer[table]
	rev atomic.Int64
}

func NewEngine() *Engine {
	e := &Engine{}
	e.tab.Store(&table{byItem: map[string][]int{}})
	return e
}

// Publish 用新规则集整表替换当前表。
func (e *Engine) Publish(rules []Rule) {
	byItem := make(map[string][]int, len(rules))
	for i, r := range rules {
		for _, item := range r.Antecedent {
			byItem[item] = append(byItem[item], i)
		}
	}
	e.tab.Store(&table{
		rules:    rules,
		byItem:   byItem,
		revision: e.rev.Add(1),
	})
}

// Size 返回当前表内规则数。
func (e *Engine) Size() int {
	return len(e.tab.Load().rules)
}

// Revision 返回当前表的代数，每次 Publish 递增。
func (e *Engine) Revision() int64 {
	return e.tab.Load().revision
}

// Rules 返回当前表内规则的副本，供快照持久化使用。
func (e *Engine) Rules() []Rule {
	tab := e.tab.Load()
	out := make([]Rule, len(tab.rules))
	copy(out, tab.rules)
	return out
}

// Associated 返回与 productID 关联的商品，按置信度降序。
// 取所有前件包含该商品、置信度不低于 minConfidence 的规则的后件，
// 去重后每个商品取其最高置信度作为分数。
func (e *Engine) Associated(productID string, minConfidence float64) []Scored {
	tab := e.tab.Load()
	best := make(map[string]float64)
	for _, ri := range tab.byItem[productID] {
		r := tab.rules[ri]
		if r.Confidence < minConfidence {
			continue
		}
		for _, c := range r.Consequent {
			if c == productID {
				continue
			}
			if r.Confidence > best[c] {
				best[c] = r.Confidence
			}
		}
	}
	out := make([]Scored, 0, len(best))
	for id, conf := range best {
		out = append(out, Scored{ID: id, Confidence: conf})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Scored 是一条关联查询结果。
type Scored struct {
	ID         string
	Confidence float64
}
