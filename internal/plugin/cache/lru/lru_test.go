package lru

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/empathai/chat-service/internal/model"
	registrycache "github.com/empathai/chat-service/internal/registry/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSetInvalidate(t *testing.T) {
	c := New(8, time.Minute)
	ctx := context.Background()

	got, err := c.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got, "miss returns nil without error")

	recall := registrycache.CachedRecall{
		Memories: []model.Memory{{Content: "I love hiking"}},
	}
	require.NoError(t, c.Set(ctx, "alice", recall, 0))

	got, err = c.Get(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "I love hiking", got.Memories[0].Content)

	require.NoError(t, c.Invalidate(ctx, "alice"))
	got, err = c.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCapacityIsBounded(t *testing.T) {
	c := New(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		userID := fmt.Sprintf("user-%d", i)
		require.NoError(t, c.Set(ctx, userID, registrycache.CachedRecall{}, 0))
	}

	// The oldest entry was evicted to stay within capacity.
	got, err := c.Get(ctx, "user-0")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = c.Get(ctx, "user-2")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestEntriesExpire(t *testing.T) {
	c := New(8, 10*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "alice", registrycache.CachedRecall{}, 0))
	time.Sleep(30 * time.Millisecond)

	got, err := c.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got, "entries past the TTL are gone")
}
