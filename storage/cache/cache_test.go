package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/igreja/core"
	logsvc "github.com/trezcool/igreja/services/logger"
	"github.com/trezcool/igreja/storage/cache"
	testutil "github.com/trezcool/igreja/tests"
)

func TestNew(t *testing.T) {
	c, err := cache.New(core.NewTestConfig(), logsvc.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &cache.Memory{}, c)
}

func TestMemory(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	testutil.FreezeTime(t, now)
	ctx := context.Background()
	c := cache.NewMemory()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrCacheMiss)

	val := []byte("painel")
	require.NoError(t, c.Set(ctx, "k", val, time.Minute))
	val[0] = 'P' // the cache keeps its own copy
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "painel", string(got))

	require.NoError(t, c.Set(ctx, "forever", []byte("1"), 0))

	testutil.FreezeTime(t, now.Add(time.Minute))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, core.ErrCacheMiss)
	_, err = c.Get(ctx, "forever")
	assert.NoError(t, err)

	require.NoError(t, c.Delete(ctx, "forever"))
	_, err = c.Get(ctx, "forever")
	assert.ErrorIs(t, err, core.ErrCacheMiss)
}
