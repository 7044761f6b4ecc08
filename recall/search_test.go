package recall

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recflow/recflow/catalog"
	"github.com/recflow/recflow/core"
)

func TestSearchRewriteAppliesSynonyms(t *testing.T) {
	s := &Search{}
	tests := []struct {
		query string
		want  []string
	}{
		{"earbuds", []string{"earphones"}},
		{"Smart TV stand", []string{"smart", "television", "stand"}},
		{"LAPTOP bag", []string{"notebook", "bag"}},
		{"smartphone cellphone", []string{"mobile", "mobile"}},
		{"watch", []string{"watch"}}, // 不在同义词表中保持原样
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.rewrite(tt.query), "query %q", tt.query)
	}
}

func TestSearchRecallMatchesAllTokens(t *testing.T) {
	cat := catalog.NewMemoryCatalog(
		&core.Product{ID: "B000000001", Name: "Boat Earphones Pro", Rating: 4.5},
		&core.Product{ID: "B000000002", Name: "Television Stand", Rating: 4.0},
	)
	s := &Search{Catalog: cat, Limit: 10}

	rctx := core.NewRecommendContext("u1", "search")
	rctx.Params["query"] = "tv stand"

	items, err := s.Recall(context.Background(), rctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "B000000002", items[0].ID)
}

func TestSearchRecallEmptyQuery(t *testing.T) {
	s := &Search{Catalog: catalog.NewMemoryCatalog()}
	items, err := s.Recall(context.Background(), core.NewRecommendContext("u1", "search"))
	assert.NoError(t, err)
	assert.Empty(t, items)
}
