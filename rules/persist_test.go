package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recflow/recflow/eventlog"
	"github.com/recflow/recflow/store"
)

func TestSaveAndLoadTable(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()

	src := NewEngine()
	src.Publish([]Rule{
		{Antecedent: []string{"B000000001"}, Consequent: []string{"B000000002"}, Support: 0.5, Confidence: 0.8, Lift: 1.2},
		{Antecedent: []string{"B000000002"}, Consequent: []string{"B000000001"}, Support: 0.5, Confidence: 0.6, Lift: 1.2},
	})
	require.NoError(t, SaveTable(ctx, kv, src))

	dst := NewEngine()
	loaded, err := LoadTable(ctx, kv, dst)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, 2, dst.Size())

	got := dst.Associated("B000000001", 0.5)
	require.NotEmpty(t, got)
	assert.Equal(t, "B000000002", got[0].ID)
	assert.InDelta(t, 0.8, got[0].Confidence, 1e-9)
}

func TestLoadTableMissingSnapshot(t *testing.T) {
	engine := NewEngine()
	loaded, err := LoadTable(context.Background(), store.NewMemoryStore(), engine)
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, 0, engine.Size())
}

func TestMinerPersistsSnapshot(t *testing.T) {
	kv := store.NewMemoryStore()
	log := eventlog.NewKeyValueLog(kv)
	seedClicks(t, log, "user1", "B000000001", "B000000002")
	seedClicks(t, log, "user2", "B000000001", "B000000002")

	engine := NewEngine()
	miner := NewMiner(log, engine, MinerOptions{MinSupport: 0.5, MinConfidence: 0.5, Store: kv})
	require.NoError(t, miner.Run(context.Background()))

	restored := NewEngine()
	loaded, err := LoadTable(context.Background(), kv, restored)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, engine.Size(), restored.Size())
}
