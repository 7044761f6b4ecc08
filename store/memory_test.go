package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZAddAndZRevRangeByScore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.ZAdd(ctx, "log:u1", 100, "a"))
	require.NoError(t, s.ZAdd(ctx, "log:u1", 300, "c"))
	require.NoError(t, s.ZAdd(ctx, "log:u1", 200, "b"))

	got, err := s.ZRevRangeByScore(ctx, "log:u1", 150, 300)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, got)

	all, err := s.ZRevRangeByScore(ctx, "log:u1", 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, all)
}

func TestZRevRangeByScoreSameScoreIsDeterministic(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.ZAdd(ctx, "k", 100, "beta"))
	require.NoError(t, s.ZAdd(ctx, "k", 100, "alpha"))

	got, err := s.ZRevRangeByScore(ctx, "k", 0, 200)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, got)
}

func TestZRevRangeByScoreMissingKeyIsEmpty(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	got, err := s.ZRevRangeByScore(context.Background(), "missing", 0, 100)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestSAddAndSMembers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.SAdd(ctx, "log:users", "u1"))
	require.NoError(t, s.SAdd(ctx, "log:users", "u2"))
	require.NoError(t, s.SAdd(ctx, "log:users", "u1")) // 重复写入幂等

	got, err := s.SMembers(ctx, "log:users")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, got)
}
