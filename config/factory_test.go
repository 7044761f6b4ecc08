package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recflow/recflow/catalog"
	"github.com/recflow/recflow/core"
	"github.com/recflow/recflow/eventlog"
	"github.com/recflow/recflow/rules"
	"github.com/recflow/recflow/store"
	"github.com/recflow/recflow/vector"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func testDeps(t *testing.T) FactoryDeps {
	t.Helper()
	idx, err := vector.NewIndex(nil)
	require.NoError(t, err)
	return FactoryDeps{
		EventLog: eventlog.NewKeyValueLog(store.NewMemoryStore()),
		Catalog: catalog.NewMemoryCatalog(
			&core.Product{ID: "B000000001", Name: "Wall Clock Classic", SubCategory: "Watches", Rating: 4.8, RatingCount: 1200, DiscountRatio: 0.6},
			&core.Product{ID: "B000000002", Name: "Boat Earphones Pro", SubCategory: "Earphones", Rating: 4.5, RatingCount: 900, DiscountRatio: 0.4},
			&core.Product{ID: "B000000003", Name: "Wooden Photo Frame", SubCategory: "Home Furnishing", Rating: 3.9, RatingCount: 150, DiscountRatio: 0.2},
		),
		Index:  idx,
		Engine: rules.NewEngine(),
	}
}

const pipelineYAML = `
pipeline:
  name: personalized
  nodes:
    - type: recall.fanout
      config:
        dedup: false
        sources:
          - type: trending
            limit: 5
          - type: best_value
            limit: 5
          - type: category
            limit: 2
            categories: ["Watches"]
    - type: rank.fusion
      config:
        weights:
          recall.trending: 0.6
          recall.best_value: 0.3
          recall.category: 0.1
    - type: filter
      config:
        filters:
          - type: blacklist
            product_ids: ["B000000003"]
          - type: expr
            expr: "item.score < 0.0"
    - type: rerank.topn
      config:
        n: 2
`

func writePipelineFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildPersonalizedPipelineFromFile(t *testing.T) {
	cfg := Default()
	cfg.Recommend.PipelineFile = writePipelineFile(t, pipelineYAML)

	pl, err := cfg.BuildPersonalizedPipeline(testDeps(t))
	require.NoError(t, err)
	require.NotNil(t, pl)
	require.Len(t, pl.Nodes, 4)

	items, err := pl.Run(context.Background(), core.NewRecommendContext("bob42", "home"), nil)
	require.NoError(t, err)

	require.Len(t, items, 2)
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	assert.Contains(t, ids, "B000000001")
	assert.NotContains(t, ids, "B000000003")
}

func TestBuildPersonalizedPipelineWithoutFile(t *testing.T) {
	pl, err := Default().BuildPersonalizedPipeline(testDeps(t))
	require.NoError(t, err)
	assert.Nil(t, pl)
}

func TestBuildPersonalizedPipelineRejectsUnknownNode(t *testing.T) {
	cfg := Default()
	cfg.Recommend.PipelineFile = writePipelineFile(t, `
pipeline:
  name: broken
  nodes:
    - type: rank.bogus
`)

	_, err := cfg.BuildPersonalizedPipeline(testDeps(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown node type")
}
