package recall

import (
	"context"
	"strings"

	"github.com/recflow/recflow/core"
)

// DefaultSynonyms 是查询改写用的同义词表（一对一替换，小写比较）。
var DefaultSynonyms = map[string]string{
	"earbuds":    "earphones",
	"tv":         "television",
	"laptop":     "notebook",
	"cellphone":  "mobile",
	"smartphone": "mobile",
}

// Search 是搜索召回源：对 rctx.Params["query"] 分词、同义词改写后，
// 在目录中做名称子串匹配（所有 token 必须全部命中）。
// 空查询返回空结果；改写是逐 token 一对一替换，不做扩召。
type Search struct {
	Catalog  core.Catalog
	Synonyms map[string]string
	Limit    int
}

func (s *Search) Name() string { return "recall.search" }

func (s *Search) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	query := strings.TrimSpace(rctx.ParamString("query"))
	if query == "" {
		return nil, nil
	}
	limit := s.Limit
	if limit <= 0 {
		limit = 10
	}
	tokens := s.rewrite(query)
	products, err := s.Catalog.SearchByName(ctx, tokens, limit)
	if err != nil {
		return nil, err
	}
	return productItems(products, "search"), nil
}

// rewrite 分词并做同义词替换，返回小写 token 序列。
func (s *Search) rewrite(query string) []string {
	synonyms := s.Synonyms
	if synonyms == nil {
		synonyms = DefaultSynonyms
	}
	fields := strings.Fields(strings.ToLower(query))
	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if repl, ok := synonyms[tok]; ok {
			tok = repl
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

var _ Source = (*Search)(nil)
