package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findthemapp/findthem-core/internal/cache"
)

func setupCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return cache.NewFromClient(client), mr
}

func TestAlertWindow(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	fresh, err := c.MarkAlertWindow(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, fresh)

	// window is open, repeat is suppressed
	fresh, err = c.MarkAlertWindow(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, fresh)

	// a different pair has its own window
	fresh, err = c.MarkAlertWindow(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, fresh)

	// window expires
	mr.FastForward(cache.AlertWindow + time.Second)
	fresh, err = c.MarkAlertWindow(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestUnreadCounters(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	// cold read is a miss, not an error
	count, found, err := c.GetUnreadCount(ctx, 7)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, int64(0), count)

	require.NoError(t, c.IncrUnreadCount(ctx, 7))
	require.NoError(t, c.IncrUnreadCount(ctx, 7))

	count, found, err = c.GetUnreadCount(ctx, 7)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(2), count)

	require.NoError(t, c.SetUnreadCount(ctx, 7, 5))
	count, _, err = c.GetUnreadCount(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	require.NoError(t, c.ResetUnreadCount(ctx, 7))
	_, found, err = c.GetUnreadCount(ctx, 7)
	require.NoError(t, err)
	assert.False(t, found)
}
