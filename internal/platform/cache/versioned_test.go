package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Versioned, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewVersioned(client, "test:dashboard", time.Minute), mr
}

func TestFetchJSONCachesLoaderResult(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	key, err := c.BuildKey(ctx, "summary")
	require.NoError(t, err)

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return map[string]float64{"revenue": 420}, nil
	}

	var first map[string]float64
	require.NoError(t, c.FetchJSON(ctx, key, &first, loader))
	require.Equal(t, 1, calls)
	require.InDelta(t, 420, first["revenue"], 1e-9)

	var second map[string]float64
	require.NoError(t, c.FetchJSON(ctx, key, &second, loader))
	require.Equal(t, 1, calls, "second fetch must hit the cache")
	require.Equal(t, first, second)
}

func TestBumpInvalidatesOldKeys(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	before, err := c.BuildKey(ctx, "summary")
	require.NoError(t, err)

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return calls, nil
	}

	var got int
	require.NoError(t, c.FetchJSON(ctx, before, &got, loader))
	require.Equal(t, 1, got)

	require.NoError(t, c.Bump(ctx))

	after, err := c.BuildKey(ctx, "summary")
	require.NoError(t, err)
	require.NotEqual(t, before, after, "bump must change the composed key")

	require.NoError(t, c.FetchJSON(ctx, after, &got, loader))
	require.Equal(t, 2, got, "post-bump fetch must reload")
}

func TestNilCacheDegradesToLoader(t *testing.T) {
	var c *Versioned
	ctx := context.Background()

	key, err := c.BuildKey(ctx, "summary")
	require.NoError(t, err)
	require.Equal(t, "summary", key)

	calls := 0
	var got int
	loader := func(context.Context) (any, error) {
		calls++
		return 7, nil
	}
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	require.Equal(t, 2, calls, "nil cache never stores")
	require.Equal(t, 7, got)

	require.NoError(t, c.Bump(ctx))
}

func TestFetchJSONExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	key, err := c.BuildKey(ctx, "series")
	require.NoError(t, err)

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return []float64{1, 2, 3}, nil
	}

	var got []float64
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	mr.FastForward(2 * time.Minute)
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	require.Equal(t, 2, calls, "expired entry must reload")
}
