package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStateStore_SingleUse(t *testing.T) {
	store := NewStateStore(nil)
	ctx := context.Background()

	store.Save(ctx, "state-1", "7", time.Minute)

	userID, ok := store.Consume(ctx, "state-1")
	require.True(t, ok)
	require.Equal(t, "7", userID)

	// Consumed once, gone forever.
	_, ok = store.Consume(ctx, "state-1")
	require.False(t, ok)
}

func TestStateStore_UnknownState(t *testing.T) {
	store := NewStateStore(nil)

	_, ok := store.Consume(context.Background(), "never-saved")
	require.False(t, ok)
}

func TestStateStore_Expired(t *testing.T) {
	store := NewStateStore(nil)
	ctx := context.Background()

	store.Save(ctx, "state-1", "7", time.Nanosecond)
	time.Sleep(time.Millisecond)

	_, ok := store.Consume(ctx, "state-1")
	require.False(t, ok)
}

func TestStateStore_DistinctStates(t *testing.T) {
	store := NewStateStore(nil)
	ctx := context.Background()

	store.Save(ctx, "state-a", "7", time.Minute)
	store.Save(ctx, "state-b", "8", time.Minute)

	userID, ok := store.Consume(ctx, "state-b")
	require.True(t, ok)
	require.Equal(t, "8", userID)

	userID, ok = store.Consume(ctx, "state-a")
	require.True(t, ok)
	require.Equal(t, "7", userID)
}
