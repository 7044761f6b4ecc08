package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recflow/recflow/core"
	"github.com/recflow/recflow/pkg/utils"
)

func TestExprFiltersByScore(t *testing.T) {
	f, err := NewExpr("item.score < 0.1")
	require.NoError(t, err)

	rctx := core.NewRecommendContext("u1", "home")

	low := core.NewScoredItem("B000000001", 0.05, "test")
	keep, err := f.ShouldFilter(context.Background(), rctx, low)
	require.NoError(t, err)
	assert.True(t, keep)

	high := core.NewScoredItem("B000000002", 0.9, "test")
	keep, err = f.ShouldFilter(context.Background(), rctx, high)
	require.NoError(t, err)
	assert.False(t, keep)
}

func TestExprReadsLabelsAndScene(t *testing.T) {
	f, err := NewExpr(`rctx.scene == "home" && label.recall_source == "search"`)
	require.NoError(t, err)

	rctx := core.NewRecommendContext("u1", "home")
	it := core.NewScoredItem("B000000001", 0.5, "search")
	it.PutLabel("recall_source", utils.Label{Value: "search", Source: "recall"})

	keep, err := f.ShouldFilter(context.Background(), rctx, it)
	require.NoError(t, err)
	assert.True(t, keep)
}

func TestNewExprRejectsInvalidExpression(t *testing.T) {
	_, err := NewExpr("item.score <")
	assert.Error(t, err)
}

func TestBlacklistFiltersListedProducts(t *testing.T) {
	f := &Blacklist{ProductIDs: []string{"B000000009"}}

	keep, err := f.ShouldFilter(context.Background(), nil, core.NewItem("B000000009"))
	require.NoError(t, err)
	assert.True(t, keep)

	keep, err = f.ShouldFilter(context.Background(), nil, core.NewItem("B000000001"))
	require.NoError(t, err)
	assert.False(t, keep)
}
