package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func TestAside_LoadsOnceThenHits(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	calls := 0
	load := func(dest *item) func() error {
		return func() error {
			calls++
			dest.Name = "tech"
			return nil
		}
	}

	var first item
	require.NoError(t, c.Aside(ctx, "category:1", &first, time.Minute, load(&first)))
	assert.Equal(t, "tech", first.Name)
	assert.True(t, mr.Exists("inkwell:category:1"))

	var second item
	require.NoError(t, c.Aside(ctx, "category:1", &second, time.Minute, load(&second)))
	assert.Equal(t, "tech", second.Name)
	assert.Equal(t, 1, calls)
}

func TestAside_LoadErrorIsNotCached(t *testing.T) {
	c, mr := newTestCache(t)
	boom := errors.New("boom")

	var v item
	err := c.Aside(context.Background(), "user:9", &v, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("inkwell:user:9"))
}

func TestAside_ExpiresWithTTL(t *testing.T) {
	c, mr := newTestCache(t)
	var v item
	require.NoError(t, c.Aside(context.Background(), "k", &v, time.Second, func() error { return nil }))
	mr.FastForward(2 * time.Second)
	assert.False(t, mr.Exists("inkwell:k"))
}

func TestAside_RedisDownFallsBackToLoad(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	var v item
	err := c.Aside(context.Background(), "k", &v, time.Minute, func() error {
		v.Name = "from-db"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "from-db", v.Name)
}

func TestInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("inkwell:"+CategoriesKey, "[]"))
	require.NoError(t, mr.Set("inkwell:"+UserKey(3), "{}"))

	c.Invalidate(context.Background(), CategoriesKey, UserKey(3))
	assert.False(t, mr.Exists("inkwell:"+CategoriesKey))
	assert.False(t, mr.Exists("inkwell:user:3"))
}

func TestDisabledCache(t *testing.T) {
	var c *Cache
	assert.False(t, c.Enabled())

	called := false
	require.NoError(t, c.Aside(context.Background(), "k", &item{}, time.Minute, func() error {
		called = true
		return nil
	}))
	assert.True(t, called)
	c.Invalidate(context.Background(), "k")
	assert.NoError(t, c.Ping(context.Background()))
	assert.NoError(t, New(nil).Close())
}

func TestInitRedis(t *testing.T) {
	assert.Nil(t, InitRedis(""))
	assert.Nil(t, InitRedis("redis://%%bad"))

	mr := miniredis.RunT(t)
	client := InitRedis("redis://" + mr.Addr())
	require.NotNil(t, client)
	_ = client.Close()

	bare := InitRedis(mr.Addr())
	require.NotNil(t, bare)
	_ = bare.Close()
}
