// Package recflow 是一个商品推荐编排与交互日志子系统。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → Rank → ReRank）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
// - 降级成链: 向量近邻 → 关联规则 → 热门，板块级隔离，单路失败不放大
package recflow

import "github.com/recflow/recflow/pipeline"

// 轻量 facade：便于用户直接 import "recflow" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindRank   = pipeline.KindRank
	KindReRank = pipeline.KindReRank
)
