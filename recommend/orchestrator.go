// Package recommend 是请求编排层：把事件日志、向量索引、规则表、
// 目录召回组装成首页/相似/搜索三类推荐操作。
//
// 设计原则：
//   - 视图隔离：首页各板块并行装配，单板块失败/超时降级为空板块，
//     绝不放大为整页失败
//   - 信号融合：个性化板块用加权融合（点击 > 搜索 > 探索）
//   - 兜底成链：向量近邻 -> 关联规则 -> 热门，逐级降级并记录原因
package recommend

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/recflow/recflow/core"
	"github.com/recflow/recflow/filter"
	"github.com/recflow/recflow/pipeline"
	"github.com/recflow/recflow/pkg/metric"
	"github.com/recflow/recflow/rank"
	"github.com/recflow/recflow/recall"
	"github.com/recflow/recflow/rerank"
	"github.com/recflow/recflow/rules"
)

// 降级原因，随响应返回供前端/排查使用。
const (
	FallbackColdStart       = "cold_start"
	FallbackNoPersonal      = "no_personal_signals"
	FallbackNoSearchMatches = "no_search_matches"
)

// Options 是编排层的行为参数。零值字段取默认值。
type Options struct {
	HistoryWindow time.Duration // 个性化信号回看窗口（默认 30 天）
	ViewTimeout   time.Duration // 单板块装配超时（默认 800ms）
	NeighborK     int           // 近邻召回数（默认 10）
	MinConfidence float64       // 关联规则置信度下限（默认 0.3）
	DefaultLimit  int           // 未指定 limit 时的默认值（默认 10）
	MaxLimit      int           // limit 上限（默认 60）
	Categories    []string      // 首页类目板块的子类目（默认 Home Furnishing / Watches）
	Synonyms      map[string]string
	// Weights 是个性化融合权重，key 为信号名 clicked/search/diverse
	Weights map[string]float64
	// AuditExposure 开启后把返回的头部商品以 recommended 事件回写日志
	AuditExposure bool
	// Pipeline 替换个性化板块的默认节点链，通常由 pipeline 配置文件构建
	Pipeline *pipeline.Pipeline
}

func (o Options) withDefaults() Options {
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = 30 * 24 * time.Hour
	}
	if o.ViewTimeout <= 0 {
		o.ViewTimeout = 800 * time.Millisecond
	}
	if o.NeighborK <= 0 {
		o.NeighborK = 10
	}
	if o.MinConfidence <= 0 {
		o.MinConfidence = 0.3
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = 10
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = 60
	}
	if len(o.Categories) == 0 {
		o.Categories = []string{"Home Furnishing", "Watches"}
	}
	if o.Weights == nil {
		o.Weights = map[string]float64{
			"clicked": rank.DefaultClickedWeight,
			"search":  rank.DefaultSearchWeight,
			"diverse": rank.DefaultDiverseWeight,
		}
	}
	return o
}

// Section 是一个推荐板块。降级时 Products 可为空且带原因。
type Section struct {
	Products       []*core.Product `json:"products"`
	FallbackReason string          `json:"fallback_reason,omitempty"`
}

// CategorySection 是按类目组织的板块。
type CategorySection struct {
	Category string          `json:"category"`
	Products []*core.Product `json:"products"`
}

// HomeResponse 是首页推荐结果，各板块独立降级。
type HomeResponse struct {
	UserID        string            `json:"user_id"`
	Personalized  Section           `json:"personalized"`
	Trending      Section           `json:"trending"`
	BestValue     Section           `json:"best_value"`
	TopCategories []CategorySection `json:"top_categories"`
	DiversePicks  Section           `json:"diverse_picks"`
}

// SimilarResponse 是单品相似推荐结果。
type SimilarResponse struct {
	ProductID string          `json:"product_id"`
	Source    string          `json:"source"` // vector / rules
	Products  []*core.Product `json:"products"`
}

// SearchResponse 是搜索推荐结果。
type SearchResponse struct {
	Query          string          `json:"query"`
	Products       []*core.Product `json:"products"`
	FallbackReason string          `json:"fallback_reason,omitempty"`
}

// Orchestrator 组合各基础能力实现推荐操作。
type Orchestrator struct {
	eventLog core.EventLog
	catalog  core.Catalog
	index    core.VectorIndex
	engine   *rules.Engine
	opts     Options

	personalized *pipeline.Pipeline
}

func NewOrchestrator(
	eventLog core.EventLog,
	catalog core.Catalog,
	index core.VectorIndex,
	engine *rules.Engine,
	opts Options,
) *Orchestrator {
	o := &Orchestrator{
		eventLog: eventLog,
		catalog:  catalog,
		index:    index,
		engine:   engine,
		opts:     opts.withDefaults(),
	}
	if o.opts.Pipeline != nil {
		o.personalized = o.opts.Pipeline
	} else {
		o.personalized = o.buildPersonalizedPipeline()
	}
	return o
}

// buildPersonalizedPipeline 构建个性化板块的默认节点链：
// 三路信号并发召回 -> 加权融合 -> 已看过滤 -> 类目多样性 -> 截断。
func (o *Orchestrator) buildPersonalizedPipeline() *pipeline.Pipeline {
	fanout := &recall.Fanout{
		Sources: []recall.Source{
			&clickedSource{
				index:         o.index,
				engine:        o.engine,
				k:             o.opts.NeighborK,
				minConfidence: o.opts.MinConfidence,
			},
			&renamed{name: "search", src: &recall.Search{
				Catalog:  o.catalog,
				Synonyms: o.opts.Synonyms,
				Limit:    o.opts.NeighborK,
			}},
			&renamed{name: "diverse", src: &recall.Diverse{
				Catalog: o.catalog,
				Limit:   o.opts.NeighborK,
			}},
		},
		Timeout: o.opts.ViewTimeout,
	}
	return &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			fanout,
			&rank.Fusion{Weights: o.opts.Weights},
			&filter.FilterNode{Filters: []filter.Filter{
				&filter.Seen{EventLog: o.eventLog, Window: o.opts.HistoryWindow},
			}},
			&rerank.Diversity{PerCategory: 3},
		},
	}
}

// Home 装配首页推荐。各板块并行且互相隔离：任一板块失败或超时
// 都降级为空板块并记 warn，整页仍然返回。
func (o *Orchestrator) Home(ctx context.Context, userID string, limit int) (*HomeResponse, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return nil, err
	}
	limit = o.clampLimit(limit)
	start := time.Now()

	// 回看窗口内的交互，提取最近点击与最近搜索作为个性化信号。
	// 日志读取失败按冷启动处理，不阻断整页。
	var lastClick, lastQuery string
	events, err := o.eventLog.Recent(ctx, userID, o.opts.HistoryWindow)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("event log unavailable, fall back to cold start")
	}
	for _, ev := range events {
		if lastClick == "" && ev.EventType == core.EventClick {
			lastClick = ev.ProductID
		}
		if lastQuery == "" && ev.EventType == core.EventSearch {
			lastQuery = ev.Query
		}
		if lastClick != "" && lastQuery != "" {
			break
		}
	}

	resp := &HomeResponse{UserID: userID}
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(o.view(egCtx, "personalized", func(vctx context.Context) error {
		section, err := o.personalizedSection(vctx, userID, lastClick, lastQuery, limit)
		if err != nil {
			return err
		}
		resp.Personalized = section
		return nil
	}, func() { resp.Personalized = Section{FallbackReason: FallbackNoPersonal} }))

	eg.Go(o.view(egCtx, "trending", func(vctx context.Context) error {
		products, err := o.catalog.TopRated(vctx, limit)
		if err != nil {
			return err
		}
		resp.Trending = Section{Products: products}
		return nil
	}, func() { resp.Trending = Section{} }))

	eg.Go(o.view(egCtx, "best_value", func(vctx context.Context) error {
		products, err := o.catalog.BestValue(vctx, limit)
		if err != nil {
			return err
		}
		resp.BestValue = Section{Products: products}
		return nil
	}, func() { resp.BestValue = Section{} }))

	eg.Go(o.view(egCtx, "top_categories", func(vctx context.Context) error {
		sections := make([]CategorySection, 0, len(o.opts.Categories))
		for _, cat := range o.opts.Categories {
			products, err := o.catalog.TopInCategory(vctx, cat, limit)
			if err != nil {
				return err
			}
			sections = append(sections, CategorySection{Category: cat, Products: products})
		}
		resp.TopCategories = sections
		return nil
	}, func() { resp.TopCategories = nil }))

	eg.Go(o.view(egCtx, "diverse_picks", func(vctx context.Context) error {
		products, err := o.catalog.RandomSample(vctx, limit)
		if err != nil {
			return err
		}
		resp.DiversePicks = Section{Products: products}
		return nil
	}, func() { resp.DiversePicks = Section{} }))

	// view() 内部吞掉错误并降级，这里 Wait 只同步完成
	_ = eg.Wait()

	o.auditExposure(ctx, userID, resp.Personalized.Products)
	metric.Timing("recommend.home.duration", time.Since(start), nil)
	return resp, nil
}

// view 包装一个板块装配函数：套上板块超时，失败时执行降级并记 warn。
func (o *Orchestrator) view(ctx context.Context, name string, build func(context.Context) error, degrade func()) func() error {
	return func() error {
		vctx, cancel := context.WithTimeout(ctx, o.opts.ViewTimeout)
		defer cancel()
		if err := build(vctx); err != nil {
			log.Warn().Err(err).Str("view", name).Msg("home view degraded")
			metric.Incr("recommend.view.degraded", []string{"view:" + name})
			degrade()
		}
		return nil
	}
}

// personalizedSection 装配个性化板块。
// 没有任何点击信号时按冷启动返回空板块；
// 融合后仍为空时降级为热门并标记原因。
func (o *Orchestrator) personalizedSection(ctx context.Context, userID, lastClick, lastQuery string, limit int) (Section, error) {
	if lastClick == "" && lastQuery == "" {
		return Section{FallbackReason: FallbackColdStart}, nil
	}

	rctx := core.NewRecommendContext(userID, "home")
	rctx.Params["anchor_product_id"] = lastClick
	rctx.Params["query"] = lastQuery

	items, err := o.personalized.Run(ctx, rctx, nil)
	if err != nil {
		return Section{}, err
	}
	if len(items) > limit {
		items = items[:limit]
	}
	if len(items) == 0 {
		log.Warn().Str("user_id", userID).Str("code", core.ErrorCodeEmptyFusion).
			Msg("all fusion signals empty, fall back to trending")
		metric.Incr("recommend.fusion.empty", nil)
		products, err := o.catalog.TopRated(ctx, limit)
		if err != nil {
			return Section{}, err
		}
		return Section{Products: products, FallbackReason: FallbackNoPersonal}, nil
	}

	products, err := o.hydrate(ctx, items)
	if err != nil {
		return Section{}, err
	}
	return Section{Products: products}, nil
}

// Similar 返回与 productID 相似的商品：向量近邻优先，近邻为空时
// 降级到关联规则；两级都空返回 NOT_FOUND。
func (o *Orchestrator) Similar(ctx context.Context, productID string, limit int) (*SimilarResponse, error) {
	if !core.ValidProductID(productID) {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidIdentifier,
			"recommend: invalid product id")
	}
	limit = o.clampLimit(limit)

	source := "vector"
	neighbors, err := o.index.Neighbors(ctx, productID, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, limit)
	for _, nb := range neighbors {
		ids = append(ids, nb.ID)
	}
	if len(ids) == 0 {
		source = "rules"
		for _, sc := range o.engine.Associated(productID, o.opts.MinConfidence) {
			ids = append(ids, sc.ID)
			if len(ids) >= limit {
				break
			}
		}
	}
	if len(ids) == 0 {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeNotFound,
			"recommend: no similar products for "+productID)
	}

	products, err := o.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &SimilarResponse{ProductID: productID, Source: source, Products: products}, nil
}

// Search 按查询词检索商品：分词、同义词改写后做全 token 子串匹配；
// 零命中时降级为热门并标记 no_search_matches。
func (o *Orchestrator) Search(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	if query == "" {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeValidation,
			"recommend: search query must not be empty")
	}
	// 搜索允许更大的页宽
	limit = o.clampLimitMax(limit, 200)

	src := &recall.Search{Catalog: o.catalog, Synonyms: o.opts.Synonyms, Limit: limit}
	rctx := core.NewRecommendContext("", "search")
	rctx.Params["query"] = query
	items, err := src.Recall(ctx, rctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		products, err := o.catalog.TopRated(ctx, limit)
		if err != nil {
			return nil, err
		}
		return &SearchResponse{Query: query, Products: products, FallbackReason: FallbackNoSearchMatches}, nil
	}

	products, err := o.hydrate(ctx, items)
	if err != nil {
		return nil, err
	}
	return &SearchResponse{Query: query, Products: products}, nil
}

// LogInteraction 追加一条用户交互事件（校验在日志层完成）。
func (o *Orchestrator) LogInteraction(ctx context.Context, userID string, event *core.InteractionEvent) error {
	return o.eventLog.Append(ctx, userID, event)
}

// History 返回用户近 days 天的交互事件，最新在前。days <= 0 时取 30。
func (o *Orchestrator) History(ctx context.Context, userID string, days int) ([]*core.InteractionEvent, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 30
	}
	return o.eventLog.Recent(ctx, userID, time.Duration(days)*24*time.Hour)
}

// auditExposure 把头部曝光以 recommended 事件回写日志，尽力而为：
// 脱离请求取消链路异步执行，失败只记 warn。
func (o *Orchestrator) auditExposure(ctx context.Context, userID string, products []*core.Product) {
	if !o.opts.AuditExposure || len(products) == 0 {
		return
	}
	top := products
	if len(top) > 5 {
		top = top[:5]
	}
	auditCtx := context.WithoutCancel(ctx)
	go func() {
		for _, p := range top {
			ev := &core.InteractionEvent{EventType: core.EventRecommended, ProductID: p.ID}
			if err := o.eventLog.Append(auditCtx, userID, ev); err != nil {
				log.Warn().Err(err).Str("user_id", userID).Msg("exposure audit append failed")
				return
			}
		}
	}()
}

// hydrate 把候选 Item 序列按序换成目录商品记录。
// Meta 已带商品的直接复用，其余批量回源，目录缺失的跳过。
func (o *Orchestrator) hydrate(ctx context.Context, items []*core.Item) ([]*core.Product, error) {
	out := make([]*core.Product, 0, len(items))
	missing := make([]string, 0, len(items))
	slots := make(map[string]int, len(items))
	for _, it := range items {
		if p, ok := it.Meta["product"].(*core.Product); ok {
			out = append(out, p)
			continue
		}
		slots[it.ID] = len(out)
		out = append(out, nil)
		missing = append(missing, it.ID)
	}
	if len(missing) > 0 {
		products, err := o.catalog.GetByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			if i, ok := slots[p.ID]; ok {
				out[i] = p
			}
		}
	}
	// 挤掉目录缺失留下的空位
	compact := out[:0]
	for _, p := range out {
		if p != nil {
			compact = append(compact, p)
		}
	}
	return compact, nil
}

func (o *Orchestrator) clampLimit(limit int) int {
	return o.clampLimitMax(limit, o.opts.MaxLimit)
}

func (o *Orchestrator) clampLimitMax(limit, max int) int {
	if limit <= 0 {
		return o.opts.DefaultLimit
	}
	if limit > max {
		return max
	}
	return limit
}
