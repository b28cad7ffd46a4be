package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxprotest/internal/comparables"
)

func newTestCache(t *testing.T) (*Reports, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestKey(t *testing.T) {
	assert.Equal(t, "taxprotest:report:3:address:1 MAIN ST", Key(3, "address", " 1 main st "))
	assert.NotEqual(t, Key(1, "account", "42"), Key(2, "account", "42"))
}

func TestGetOrBuild(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	calls := 0
	build := func() comparables.Report {
		calls++
		return comparables.Report{Status: comparables.StatusFair, Query: "1 MAIN ST", Narrative: "fair"}
	}

	key := Key(1, "address", "1 main st")
	rep, hit := c.GetOrBuild(ctx, key, build)
	assert.False(t, hit)
	assert.Equal(t, comparables.StatusFair, rep.Status)

	rep, hit = c.GetOrBuild(ctx, key, build)
	assert.True(t, hit)
	assert.Equal(t, "fair", rep.Narrative)
	assert.Equal(t, 1, calls)

	assert.True(t, mr.Exists(key))
	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists(key))
}

func TestGetOrBuildRedisDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	rep, hit := c.GetOrBuild(context.Background(), Key(1, "account", "1"), func() comparables.Report {
		return comparables.Report{Status: comparables.StatusNotFound}
	})
	assert.False(t, hit)
	assert.Equal(t, comparables.StatusNotFound, rep.Status)
}

func TestGetCorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("k", "{not json"))

	_, ok, err := c.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.Error(t, err)
}
