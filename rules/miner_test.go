package rules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recflow/recflow/core"
	"github.com/recflow/recflow/eventlog"
	"github.com/recflow/recflow/store"
)

func seedClicks(t *testing.T, log core.EventLog, userID string, productIDs ...string) {
	t.Helper()
	for _, pid := range productIDs {
		require.NoError(t, log.Append(context.Background(), userID, &core.InteractionEvent{
			EventType: core.EventClick,
			ProductID: pid,
		}))
	}
}

func TestMinerPublishesRules(t *testing.T) {
	log := eventlog.NewKeyValueLog(store.NewMemoryStore())
	// 两个用户都点了同一对商品，一个用户点了另一对
	seedClicks(t, log, "user1", "B000000001", "B000000002")
	seedClicks(t, log, "user2", "B000000001", "B000000002")
	seedClicks(t, log, "user3", "B000000001", "B000000003")

	engine := NewEngine()
	miner := NewMiner(log, engine, MinerOptions{MinSupport: 0.5, MinConfidence: 0.5})

	require.NoError(t, miner.Run(context.Background()))
	assert.Greater(t, engine.Size(), 0)
	assert.Equal(t, int64(1), engine.Revision())

	got := engine.Associated("B000000002", 0.5)
	require.NotEmpty(t, got)
	assert.Equal(t, "B000000001", got[0].ID)
}

func TestMinerSkipsSingleProductUsers(t *testing.T) {
	log := eventlog.NewKeyValueLog(store.NewMemoryStore())
	// 单商品用户构不成事务
	seedClicks(t, log, "user1", "B000000001")
	seedClicks(t, log, "user2", "B000000002")

	engine := NewEngine()
	miner := NewMiner(log, engine, MinerOptions{MinSupport: 0.5, MinConfidence: 0.5})

	err := miner.Run(context.Background())
	assert.True(t, core.IsMiningAborted(err))
	assert.Equal(t, 0, engine.Size())
}

func TestMinerAbortKeepsPreviousTable(t *testing.T) {
	log := eventlog.NewKeyValueLog(store.NewMemoryStore())
	engine := NewEngine()
	engine.Publish([]Rule{{Antecedent: []string{"A"}, Consequent: []string{"B"}, Confidence: 0.9}})
	rev := engine.Revision()

	miner := NewMiner(log, engine, MinerOptions{MinSupport: 0.5, MinConfidence: 0.5})
	err := miner.Run(context.Background())

	assert.True(t, core.IsMiningAborted(err))
	assert.Equal(t, 1, engine.Size())
	assert.Equal(t, rev, engine.Revision())
}

func TestMinerRejectsConcurrentRun(t *testing.T) {
	log := eventlog.NewKeyValueLog(store.NewMemoryStore())
	miner := NewMiner(log, NewEngine(), MinerOptions{})

	// 模拟一次在途挖掘
	require.True(t, miner.running.CompareAndSwap(false, true))
	defer miner.running.Store(false)

	err := miner.Run(context.Background())
	assert.True(t, core.IsBusy(err))
}

func TestMinerHonorsWindow(t *testing.T) {
	log := eventlog.NewKeyValueLog(store.NewMemoryStore())
	old := time.Now().Add(-60 * 24 * time.Hour)
	for _, pid := range []string{"B000000001", "B000000002"} {
		require.NoError(t, log.Append(context.Background(), "user1", &core.InteractionEvent{
			EventType: core.EventClick,
			ProductID: pid,
			Timestamp: old,
		}))
	}

	engine := NewEngine()
	miner := NewMiner(log, engine, MinerOptions{Window: 30 * 24 * time.Hour, MinSupport: 0.5, MinConfidence: 0.5})

	err := miner.Run(context.Background())
	assert.True(t, core.IsMiningAborted(err))
}
