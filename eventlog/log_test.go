package eventlog

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recflow/recflow/core"
	"github.com/recflow/recflow/store"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func newTestLog() *KeyValueLog {
	return NewKeyValueLog(store.NewMemoryStore())
}

func TestEnsureUserLogIsIdempotent(t *testing.T) {
	ctx := context.Background()
	log := newTestLog()

	require.NoError(t, log.EnsureUserLog(ctx, "alice1"))
	require.NoError(t, log.EnsureUserLog(ctx, "alice1"))

	users, err := log.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice1"}, users)
}

func TestEnsureUserLogRejectsInvalidID(t *testing.T) {
	ctx := context.Background()
	log := newTestLog()

	tests := []struct {
		name   string
		userID string
	}{
		{"empty", ""},
		{"path traversal", "../etc"},
		{"sql injection", "u1; DROP TABLE"},
		{"too long", "a123456789a123456789a123456789a123456789a1234567891"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := log.EnsureUserLog(ctx, tt.userID)
			assert.True(t, core.IsInvalidIdentifier(err))
		})
	}
}

func TestAppendAndRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	log := newTestLog()
	now := time.Now()

	events := []*core.InteractionEvent{
		{EventType: core.EventClick, ProductID: "B08CF3D7QR", Timestamp: now.Add(-2 * time.Hour)},
		{EventType: core.EventSearch, Query: "earbuds", Timestamp: now.Add(-1 * time.Hour)},
		{EventType: core.EventClick, ProductID: "B0B2D77YB8", Timestamp: now},
	}
	for _, ev := range events {
		require.NoError(t, log.Append(ctx, "bob42", ev))
	}

	got, err := log.Recent(ctx, "bob42", 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "B0B2D77YB8", got[0].ProductID)
	assert.Equal(t, "earbuds", got[1].Query)
	assert.Equal(t, "B08CF3D7QR", got[2].ProductID)
}

func TestRecentHonorsWindow(t *testing.T) {
	ctx := context.Background()
	log := newTestLog()
	now := time.Now()

	require.NoError(t, log.Append(ctx, "bob42", &core.InteractionEvent{
		EventType: core.EventClick, ProductID: "B08CF3D7QR", Timestamp: now.Add(-40 * 24 * time.Hour),
	}))
	require.NoError(t, log.Append(ctx, "bob42", &core.InteractionEvent{
		EventType: core.EventClick, ProductID: "B0B2D77YB8", Timestamp: now.Add(-time.Hour),
	}))

	got, err := log.Recent(ctx, "bob42", 30*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B0B2D77YB8", got[0].ProductID)
}

func TestRecentOnUnknownUserIsEmpty(t *testing.T) {
	got, err := newTestLog().Recent(context.Background(), "nobody", time.Hour)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestAppendValidatesEvent(t *testing.T) {
	ctx := context.Background()
	log := newTestLog()

	tests := []struct {
		name  string
		event *core.InteractionEvent
	}{
		{"click without product id", &core.InteractionEvent{EventType: core.EventClick}},
		{"click with lowercase product id", &core.InteractionEvent{EventType: core.EventClick, ProductID: "b08cf3d7qr"}},
		{"search without query", &core.InteractionEvent{EventType: core.EventSearch}},
		{"unknown type", &core.InteractionEvent{EventType: "purchase", ProductID: "B08CF3D7QR"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := log.Append(ctx, "bob42", tt.event)
			assert.True(t, core.IsValidation(err))
		})
	}

	// 校验失败不得留下任何写入痕迹
	users, err := log.Users(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestAppendDefaultsTimestamp(t *testing.T) {
	ctx := context.Background()
	log := newTestLog()

	require.NoError(t, log.Append(ctx, "bob42", &core.InteractionEvent{
		EventType: core.EventClick, ProductID: "B08CF3D7QR",
	}))
	got, err := log.Recent(ctx, "bob42", time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.WithinDuration(t, time.Now(), got[0].Timestamp, time.Minute)
}

func TestAppendDoesNotMutateCallerEvent(t *testing.T) {
	ctx := context.Background()
	log := newTestLog()

	ev := &core.InteractionEvent{EventType: core.EventClick, ProductID: "B08CF3D7QR"}
	require.NoError(t, log.Append(ctx, "bob42", ev))
	assert.True(t, ev.Timestamp.IsZero(), "append should not write the defaulted timestamp back")
}
