package config

import (
	"fmt"
	"time"

	"github.com/recflow/recflow/core"
	"github.com/recflow/recflow/filter"
	"github.com/recflow/recflow/pipeline"
	"github.com/recflow/recflow/pkg/conv"
	"github.com/recflow/recflow/rank"
	"github.com/recflow/recflow/recall"
	"github.com/recflow/recflow/rerank"
	"github.com/recflow/recflow/rules"
)

// BuildPersonalizedPipeline 按 recommend.pipeline_file 构建个性化板块
// 的 Pipeline。未配置文件时返回 nil，调用方使用内置节点链。
func (c *Config) BuildPersonalizedPipeline(deps FactoryDeps) (*pipeline.Pipeline, error) {
	if c.Recommend.PipelineFile == "" {
		return nil, nil
	}
	pcfg, err := pipeline.LoadFromYAML(c.Recommend.PipelineFile)
	if err != nil {
		return nil, fmt.Errorf("load pipeline config: %w", err)
	}
	return pcfg.BuildPipeline(NewFactory(deps))
}

// FactoryDeps 是 Node 构建所需的运行时依赖。
type FactoryDeps struct {
	EventLog core.EventLog
	Catalog  core.Catalog
	Index    core.VectorIndex
	Engine   *rules.Engine
	Synonyms map[string]string
}

// NewFactory 返回一个包含所有内置 Node 的工厂。
// 自定义 Pipeline 可通过 YAML 配置组装这些 Node。
func NewFactory(deps FactoryDeps) *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()

	// 注册 Recall Nodes
	factory.Register("recall.fanout", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildFanoutNode(deps, cfg)
	})

	// 注册 Rank Nodes
	factory.Register("rank.fusion", func(cfg map[string]interface{}) (pipeline.Node, error) {
		weightsRaw, _ := cfg["weights"].(map[string]interface{})
		return &rank.Fusion{Weights: conv.MapToFloat64(weightsRaw)}, nil
	})

	// 注册 ReRank Nodes
	factory.Register("rerank.topn", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
	})
	factory.Register("rerank.diversity", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return &rerank.Diversity{
			LabelKey:    conv.ConfigGet[string](cfg, "label_key", ""),
			PerCategory: int(conv.ConfigGetInt64(cfg, "per_category", 0)),
		}, nil
	})

	// 注册 Filter Nodes
	factory.Register("filter", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildFilterNode(deps, cfg)
	})

	return factory
}

func buildFanoutNode(deps FactoryDeps, cfg map[string]interface{}) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}

	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]interface{})
		if !ok {
			continue
		}
		sourceType := conv.ConfigGet[string](sourceMap, "type", "")
		limit := int(conv.ConfigGetInt64(sourceMap, "limit", 0))
		switch sourceType {
		case "neighbors":
			sources = append(sources, &recall.Neighbors{Index: deps.Index, K: limit})
		case "associated":
			sources = append(sources, &recall.Associated{
				Engine:        deps.Engine,
				MinConfidence: conv.ConfigGet[float64](sourceMap, "min_confidence", 0),
				Limit:         limit,
			})
		case "trending":
			sources = append(sources, &recall.Trending{Catalog: deps.Catalog, Limit: limit})
		case "best_value":
			sources = append(sources, &recall.BestValue{Catalog: deps.Catalog, Limit: limit})
		case "category":
			sources = append(sources, &recall.Category{
				Catalog:    deps.Catalog,
				Categories: conv.SliceAnyToString(sourceMap["categories"]),
				PerLimit:   limit,
			})
		case "diverse":
			sources = append(sources, &recall.Diverse{Catalog: deps.Catalog, Limit: limit})
		case "search":
			sources = append(sources, &recall.Search{
				Catalog:  deps.Catalog,
				Synonyms: deps.Synonyms,
				Limit:    limit,
			})
		default:
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
	}

	fanout := &recall.Fanout{
		Sources: sources,
		Dedup:   conv.ConfigGet[bool](cfg, "dedup", true),
	}
	if ms := conv.ConfigGetInt64(cfg, "timeout_ms", 0); ms > 0 {
		fanout.Timeout = time.Duration(ms) * time.Millisecond
	}
	if n := conv.ConfigGetInt64(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = int(n)
	}
	return fanout, nil
}

func buildFilterNode(deps FactoryDeps, cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		filterType := conv.ConfigGet[string](filterMap, "type", "")
		switch filterType {
		case "blacklist":
			filters = append(filters, &filter.Blacklist{
				ProductIDs: conv.SliceAnyToString(filterMap["product_ids"]),
				Key:        conv.ConfigGet[string](filterMap, "key", ""),
			})
		case "seen":
			window := time.Duration(conv.ConfigGetInt64(filterMap, "window_days", 0)) * 24 * time.Hour
			filters = append(filters, &filter.Seen{EventLog: deps.EventLog, Window: window})
		case "expr":
			expr, err := filter.NewExpr(conv.ConfigGet[string](filterMap, "expr", ""))
			if err != nil {
				return nil, err
			}
			filters = append(filters, expr)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}

	return &filter.FilterNode{Filters: filters}, nil
}
