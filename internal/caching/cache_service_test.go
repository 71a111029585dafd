package caching

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryCache(now *time.Time) *memoryCacheService {
	c := NewMemoryCacheService().(*memoryCacheService)
	c.nowFn = func() time.Time { return *now }
	return c
}

func TestMemoryCache_StringExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	c := newTestMemoryCache(&now)
	ctx := context.Background()

	require.NoError(t, c.SetString(ctx, "k", "v", time.Minute))

	val, err := c.GetString(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	now = now.Add(time.Minute)
	val, err = c.GetString(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestMemoryCache_TakeString(t *testing.T) {
	now := time.Now()
	c := newTestMemoryCache(&now)
	ctx := context.Background()

	require.NoError(t, c.SetString(ctx, "k", "v", 0))

	val, err := c.TakeString(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	val, err = c.TakeString(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestMemoryCache_IsRateLimited(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	c := newTestMemoryCache(&now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limited, err := c.IsRateLimited(ctx, "forgot:a@b.com", 3, time.Hour)
		require.NoError(t, err)
		assert.False(t, limited, "attempt %d", i+1)
	}
	limited, err := c.IsRateLimited(ctx, "forgot:a@b.com", 3, time.Hour)
	require.NoError(t, err)
	assert.True(t, limited)

	now = now.Add(time.Hour)
	limited, err = c.IsRateLimited(ctx, "forgot:a@b.com", 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, limited)
}

func TestResetTokenStore_SingleUse(t *testing.T) {
	store := NewResetTokenStore(NewMemoryCacheService())
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.Save(ctx, userID, "token-1", time.Hour))

	ok, err := store.Consume(ctx, userID, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Consume(ctx, userID, "token-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Consume(ctx, userID, "token-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResetTokenStore_NewTokenReplacesOld(t *testing.T) {
	store := NewResetTokenStore(NewMemoryCacheService())
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.Save(ctx, userID, "old", time.Hour))
	require.NoError(t, store.Save(ctx, userID, "new", time.Hour))

	ok, err := store.Consume(ctx, userID, "old")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Consume(ctx, userID, "new")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHashToken(t *testing.T) {
	assert.Len(t, HashToken("abc"), 64)
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
}
