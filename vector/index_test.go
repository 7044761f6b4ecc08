package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVectors() map[string][]float64 {
	return map[string][]float64{
		"B000000001": {1, 0},
		"B000000002": {0.9, 0.1},
		"B000000003": {0, 1},
		"B000000004": {1, 0}, // 与 B000000001 同向
	}
}

func TestNeighborsExcludesSelf(t *testing.T) {
	idx, err := NewIndex(testVectors())
	require.NoError(t, err)

	got, err := idx.Neighbors(context.Background(), "B000000001", 10)
	require.NoError(t, err)
	for _, nb := range got {
		assert.NotEqual(t, "B000000001", nb.ID)
	}
	assert.Len(t, got, 3)
}

func TestNeighborsOrderAndTieBreak(t *testing.T) {
	idx, err := NewIndex(map[string][]float64{
		"B000000001": {1, 0},
		"B000000003": {2, 0}, // 归一化后与 B000000005 同分
		"B000000005": {3, 0},
		"B000000009": {0, 1},
	})
	require.NoError(t, err)

	got, err := idx.Neighbors(context.Background(), "B000000001", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// 分数不增；同分按 ID 升序
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
	assert.Equal(t, "B000000003", got[0].ID)
	assert.Equal(t, "B000000005", got[1].ID)
	assert.Equal(t, "B000000009", got[2].ID)
}

func TestNeighborsRespectsK(t *testing.T) {
	idx, err := NewIndex(testVectors())
	require.NoError(t, err)

	got, err := idx.Neighbors(context.Background(), "B000000001", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "B000000004", got[0].ID)
}

func TestNeighborsOnUnknownProductIsEmpty(t *testing.T) {
	idx, err := NewIndex(testVectors())
	require.NoError(t, err)

	got, err := idx.Neighbors(context.Background(), "B999999999", 5)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewIndexRejectsMixedDimensions(t *testing.T) {
	_, err := NewIndex(map[string][]float64{
		"B000000001": {1, 0},
		"B000000002": {1, 0, 0},
	})
	assert.Error(t, err)
}

type staticLoader struct {
	vectors map[string][]float64
}

func (l *staticLoader) Load(context.Context) (map[string][]float64, error) {
	return l.vectors, nil
}

func TestReloadSwapsSnapshot(t *testing.T) {
	idx, err := NewIndex(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Size())

	require.NoError(t, idx.Reload(context.Background(), &staticLoader{vectors: testVectors()}))
	assert.Equal(t, 4, idx.Size())

	got, err := idx.Neighbors(context.Background(), "B000000001", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B000000004", got[0].ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
}
