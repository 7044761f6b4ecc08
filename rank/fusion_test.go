package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recflow/recflow/core"
)

func items(pairs ...any) []*core.Item {
	out := make([]*core.Item, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, core.NewScoredItem(pairs[i].(string), pairs[i+1].(float64), "test"))
	}
	return out
}

func TestMergeWeightedSum(t *testing.T) {
	merged := Merge(
		WeightedList{Name: "clicked", Weight: 0.5, Items: items("X", 1.0, "Y", 0.4)},
		WeightedList{Name: "search", Weight: 0.4, Items: items("X", 1.0)},
		WeightedList{Name: "diverse", Weight: 0.1, Items: items("Z", 1.0)},
	)

	require.Len(t, merged, 3)
	// X 同时命中点击与搜索：0.5*1.0 + 0.4*1.0 = 0.9
	assert.Equal(t, "X", merged[0].ID)
	assert.InDelta(t, 0.9, merged[0].Score, 1e-9)
	assert.Equal(t, "Y", merged[1].ID)
	assert.InDelta(t, 0.2, merged[1].Score, 1e-9)
	assert.Equal(t, "Z", merged[2].ID)
	assert.InDelta(t, 0.1, merged[2].Score, 1e-9)
}

func TestMergeIsCommutative(t *testing.T) {
	a := WeightedList{Name: "clicked", Weight: 0.5, Items: items("X", 0.8, "Y", 0.6)}
	b := WeightedList{Name: "search", Weight: 0.4, Items: items("Y", 0.9, "Z", 0.3)}

	ab := Merge(a, b)
	ba := Merge(b, a)

	require.Equal(t, len(ab), len(ba))
	scores := func(list []*core.Item) map[string]float64 {
		m := make(map[string]float64, len(list))
		for _, it := range list {
			m[it.ID] = it.Score
		}
		return m
	}
	assert.InDeltaMapValues(t, scores(ab), scores(ba), 1e-9)
}

func TestMergeTieKeepsFirstSeenOrder(t *testing.T) {
	merged := Merge(
		WeightedList{Name: "clicked", Weight: 0.5, Items: items("M", 0.4, "N", 0.4)},
	)
	require.Len(t, merged, 2)
	assert.Equal(t, "M", merged[0].ID)
	assert.Equal(t, "N", merged[1].ID)
}

func TestMergeRecordsFusionSignals(t *testing.T) {
	merged := Merge(
		WeightedList{Name: "clicked", Weight: 0.5, Items: items("X", 1.0)},
		WeightedList{Name: "search", Weight: 0.4, Items: items("X", 1.0)},
	)
	require.Len(t, merged, 1)
	lbl, ok := merged[0].Labels["fusion_signals"]
	require.True(t, ok)
	assert.Contains(t, lbl.Value, "clicked")
	assert.Contains(t, lbl.Value, "search")
}
