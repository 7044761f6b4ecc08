package recommend

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recflow/recflow/catalog"
	"github.com/recflow/recflow/core"
	"github.com/recflow/recflow/eventlog"
	"github.com/recflow/recflow/filter"
	"github.com/recflow/recflow/pipeline"
	"github.com/recflow/recflow/recall"
	"github.com/recflow/recflow/rules"
	"github.com/recflow/recflow/store"
	"github.com/recflow/recflow/vector"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func testCatalog() *catalog.MemoryCatalog {
	return catalog.NewMemoryCatalog(
		&core.Product{ID: "B000000001", Name: "Boat Earphones Pro", SubCategory: "Earphones", Rating: 4.5, RatingCount: 900, DiscountRatio: 0.4},
		&core.Product{ID: "B000000002", Name: "Noise Cancelling Earphones", SubCategory: "Earphones", Rating: 4.2, RatingCount: 500, DiscountRatio: 0.1},
		&core.Product{ID: "B000000003", Name: "Wall Clock Classic", SubCategory: "Watches", Rating: 4.8, RatingCount: 1200, DiscountRatio: 0.6},
		&core.Product{ID: "B000000004", Name: "Wooden Photo Frame", SubCategory: "Home Furnishing", Rating: 3.9, RatingCount: 150, DiscountRatio: 0.2},
	)
}

func testIndex(t *testing.T) *vector.Index {
	t.Helper()
	idx, err := vector.NewIndex(map[string][]float64{
		"B000000001": {1, 0},
		"B000000002": {0.95, 0.05},
		"B000000003": {0, 1},
	})
	require.NoError(t, err)
	return idx
}

func newTestOrchestrator(t *testing.T, log core.EventLog) *Orchestrator {
	t.Helper()
	return NewOrchestrator(log, testCatalog(), testIndex(t), rules.NewEngine(), Options{})
}

func TestHomeColdStart(t *testing.T) {
	log := eventlog.NewKeyValueLog(store.NewMemoryStore())
	o := newTestOrchestrator(t, log)

	resp, err := o.Home(context.Background(), "newuser1", 10)
	require.NoError(t, err)

	assert.Empty(t, resp.Personalized.Products)
	assert.Equal(t, FallbackColdStart, resp.Personalized.FallbackReason)
	assert.NotEmpty(t, resp.Trending.Products)
	assert.NotEmpty(t, resp.BestValue.Products)
	assert.NotEmpty(t, resp.DiversePicks.Products)
	require.Len(t, resp.TopCategories, 2)
	assert.Equal(t, "Home Furnishing", resp.TopCategories[0].Category)
}

func TestHomePersonalizedFromLastClick(t *testing.T) {
	log := eventlog.NewKeyValueLog(store.NewMemoryStore())
	require.NoError(t, log.Append(context.Background(), "bob42", &core.InteractionEvent{
		EventType: core.EventClick, ProductID: "B000000001",
	}))
	o := newTestOrchestrator(t, log)

	resp, err := o.Home(context.Background(), "bob42", 10)
	require.NoError(t, err)

	require.NotEmpty(t, resp.Personalized.Products)
	assert.Empty(t, resp.Personalized.FallbackReason)
	ids := make([]string, 0, len(resp.Personalized.Products))
	for _, p := range resp.Personalized.Products {
		ids = append(ids, p.ID)
	}
	// 近邻召回应带出相似商品，且剔除已点击的锚点
	assert.Contains(t, ids, "B000000002")
	assert.NotContains(t, ids, "B000000001")
}

func TestHomeHonorsConfiguredPipeline(t *testing.T) {
	log := eventlog.NewKeyValueLog(store.NewMemoryStore())
	require.NoError(t, log.Append(context.Background(), "bob42", &core.InteractionEvent{
		EventType: core.EventClick, ProductID: "B000000001",
	}))

	// 定制链只走热门召回并屏蔽 B000000003，替换内置节点链
	cat := testCatalog()
	custom := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.Fanout{Sources: []recall.Source{&recall.Trending{Catalog: cat, Limit: 5}}},
		&filter.FilterNode{Filters: []filter.Filter{
			&filter.Blacklist{ProductIDs: []string{"B000000003"}},
		}},
	}}
	o := NewOrchestrator(log, cat, testIndex(t), rules.NewEngine(), Options{Pipeline: custom})

	resp, err := o.Home(context.Background(), "bob42", 10)
	require.NoError(t, err)

	require.NotEmpty(t, resp.Personalized.Products)
	ids := make([]string, 0, len(resp.Personalized.Products))
	for _, p := range resp.Personalized.Products {
		ids = append(ids, p.ID)
	}
	assert.NotContains(t, ids, "B000000003")
	// 内置链的已看过滤会剔除点击过的商品，定制链没有该过滤
	assert.Contains(t, ids, "B000000001")
}

func TestHomeTrendingOrder(t *testing.T) {
	log := eventlog.NewKeyValueLog(store.NewMemoryStore())
	o := newTestOrchestrator(t, log)

	resp, err := o.Home(context.Background(), "newuser1", 10)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Trending.Products)
	assert.Equal(t, "B000000003", resp.Trending.Products[0].ID)
}

func TestHomeRejectsInvalidUser(t *testing.T) {
	o := newTestOrchestrator(t, eventlog.NewKeyValueLog(store.NewMemoryStore()))
	_, err := o.Home(context.Background(), "../../etc", 10)
	assert.True(t, core.IsInvalidIdentifier(err))
}

func TestSimilarFromVectorIndex(t *testing.T) {
	o := newTestOrchestrator(t, eventlog.NewKeyValueLog(store.NewMemoryStore()))

	resp, err := o.Similar(context.Background(), "B000000001", 5)
	require.NoError(t, err)
	assert.Equal(t, "vector", resp.Source)
	require.NotEmpty(t, resp.Products)
	assert.Equal(t, "B000000002", resp.Products[0].ID)
	for _, p := range resp.Products {
		assert.NotEqual(t, "B000000001", p.ID)
	}
}

func TestSimilarFallsBackToRules(t *testing.T) {
	engine := rules.NewEngine()
	engine.Publish([]rules.Rule{
		{Antecedent: []string{"B000000009"}, Consequent: []string{"B000000003"}, Confidence: 0.8},
	})
	idx, err := vector.NewIndex(nil)
	require.NoError(t, err)
	o := NewOrchestrator(eventlog.NewKeyValueLog(store.NewMemoryStore()), testCatalog(), idx, engine, Options{})

	resp, err := o.Similar(context.Background(), "B000000009", 5)
	require.NoError(t, err)
	assert.Equal(t, "rules", resp.Source)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "B000000003", resp.Products[0].ID)
}

func TestSimilarNotFound(t *testing.T) {
	idx, err := vector.NewIndex(nil)
	require.NoError(t, err)
	o := NewOrchestrator(eventlog.NewKeyValueLog(store.NewMemoryStore()), testCatalog(), idx, rules.NewEngine(), Options{})

	_, err = o.Similar(context.Background(), "B999999999", 5)
	assert.True(t, core.IsNotFound(err))
}

func TestSimilarRejectsInvalidProductID(t *testing.T) {
	o := newTestOrchestrator(t, eventlog.NewKeyValueLog(store.NewMemoryStore()))
	_, err := o.Similar(context.Background(), "short", 5)
	assert.True(t, core.IsInvalidIdentifier(err))
}

func TestSearchAppliesSynonyms(t *testing.T) {
	o := newTestOrchestrator(t, eventlog.NewKeyValueLog(store.NewMemoryStore()))

	// earbuds 改写为 earphones 后命中两款耳机
	resp, err := o.Search(context.Background(), "earbuds", 10)
	require.NoError(t, err)
	assert.Empty(t, resp.FallbackReason)
	require.Len(t, resp.Products, 2)
	for _, p := range resp.Products {
		assert.Contains(t, p.Name, "Earphones")
	}
}

func TestSearchNoMatchesFallsBackToTrending(t *testing.T) {
	o := newTestOrchestrator(t, eventlog.NewKeyValueLog(store.NewMemoryStore()))

	resp, err := o.Search(context.Background(), "quantum flux capacitor", 10)
	require.NoError(t, err)
	assert.Equal(t, FallbackNoSearchMatches, resp.FallbackReason)
	assert.NotEmpty(t, resp.Products)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	o := newTestOrchestrator(t, eventlog.NewKeyValueLog(store.NewMemoryStore()))
	_, err := o.Search(context.Background(), "", 10)
	assert.True(t, core.IsValidation(err))
}

func TestHistoryDefaultsToThirtyDays(t *testing.T) {
	log := eventlog.NewKeyValueLog(store.NewMemoryStore())
	require.NoError(t, log.Append(context.Background(), "bob42", &core.InteractionEvent{
		EventType: core.EventSearch, Query: "watch",
	}))
	o := newTestOrchestrator(t, log)

	events, err := o.History(context.Background(), "bob42", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "watch", events[0].Query)
}
