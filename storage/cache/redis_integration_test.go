//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/storage/cache"
)

func TestRedis(t *testing.T) {
	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(addr)
	require.NoError(t, err)

	c := cache.NewRedis(redis.NewClient(opts))
	t.Cleanup(func() { _ = c.Close() })

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("painel"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "painel", string(got))

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, core.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "short", []byte("1"), time.Second))
	assert.Eventually(t, func() bool {
		_, err := c.Get(ctx, "short")
		return err == core.ErrCacheMiss
	}, 5*time.Second, 100*time.Millisecond)
}
