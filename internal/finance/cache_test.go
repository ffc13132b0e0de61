package finance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soleilcom/gestion/internal/observability"
)

func newTestCache(t *testing.T, metrics *observability.Metrics) (*Cache, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute, metrics), mr, client
}

func TestCacheFetchJSONPopulatesOnce(t *testing.T) {
	metrics := observability.NewMetrics()
	cache, mr, _ := newTestCache(t, metrics)
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "report", "month")
	require.NoError(t, err)
	assert.Equal(t, "gestion:finance:report:month:1", key)

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return map[string]int{"value": 42}, nil
	}
	var out map[string]int
	require.NoError(t, cache.FetchJSON(ctx, key, &out, loader))
	require.NoError(t, cache.FetchJSON(ctx, key, &out, loader))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 42, out["value"])
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), `gestion_cache_lookups_total{cache="finance",result="hit"} 1`)
	assert.Contains(t, rr.Body.String(), `gestion_cache_lookups_total{cache="finance",result="miss"} 1`)
}

func TestCacheLoaderErrorIsNotCached(t *testing.T) {
	cache, mr, _ := newTestCache(t, nil)
	ctx := context.Background()
	boom := errors.New("boom")

	var out map[string]int
	err := cache.FetchJSON(ctx, "k", &out, func(context.Context) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestCacheBumpChangesKeys(t *testing.T) {
	cache, _, _ := newTestCache(t, nil)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, "report", "all")
	require.NoError(t, err)
	require.NoError(t, cache.Bump(ctx))
	after, err := cache.BuildKey(ctx, "report", "all")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
	assert.Equal(t, "gestion:finance:report:all:2", after)
}

func TestCacheListenForInvalidation(t *testing.T) {
	cache, _, client := newTestCache(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := cache.Version(ctx)
	require.NoError(t, err)
	require.NoError(t, cache.ListenForInvalidation(ctx))
	require.NoError(t, client.Publish(ctx, bumpChannel, "7").Err())

	assert.Eventually(t, func() bool {
		ver, err := cache.Version(ctx)
		return err == nil && ver == 7
	}, time.Second, 10*time.Millisecond)
}

func TestNilCacheCallsLoader(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "report", "day")
	require.NoError(t, err)
	assert.Equal(t, "gestion:finance:report:day", key)

	var out []int
	require.NoError(t, cache.FetchJSON(ctx, key, &out, func(context.Context) (any, error) { return []int{1, 2}, nil }))
	assert.Equal(t, []int{1, 2}, out)
	assert.NoError(t, cache.Bump(ctx))
}
