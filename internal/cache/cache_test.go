package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := New(Config{Driver: "redis", Addr: mr.Addr(), Prefix: "crm"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestNew_Drivers(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)
	st, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, st.Driver)

	_, err = New(Config{Driver: "memcached"})
	require.Error(t, err)

	_, err = New(Config{Driver: "redis", Addr: "127.0.0.1:1"})
	require.Error(t, err)
}

func TestMemory_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("p")

	_, err := c.Get(ctx, "k")
	assert.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	st, _ := c.Stats(ctx)
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(2), st.Misses)
	assert.NoError(t, c.Ping(ctx))
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")
	require.NoError(t, c.Set(ctx, "k", "v", 20*time.Millisecond))

	time.Sleep(40 * time.Millisecond)
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	st, _ := c.Stats(ctx)
	assert.Zero(t, st.Keys)
}

func TestRedis_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	mr, c := newMiniredis(t)

	require.NoError(t, c.Set(ctx, "orgs:7", `[{"id":"1"}]`, time.Minute))
	assert.True(t, mr.Exists("crm:orgs:7"))
	assert.Equal(t, time.Minute, mr.TTL("crm:orgs:7"))

	v, err := c.Get(ctx, "orgs:7")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, v)

	mr.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, "orgs:7")
	assert.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "x", "y", 0))
	require.NoError(t, c.Delete(ctx, "x"))
	assert.False(t, mr.Exists("crm:x"))

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, DriverRedis, st.Driver)
}

func TestRedis_RawAndClose(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := New(Config{Driver: DriverRedis, Addr: mr.Addr()})
	require.NoError(t, err)

	raw, ok := Raw(c)
	require.True(t, ok)
	require.NoError(t, raw.Set(context.Background(), "rl:k", "1", 0).Err())
	assert.True(t, mr.Exists("rl:k"))

	// el cliente es propio del cache: Close lo cierra
	require.NoError(t, c.Close())
	assert.ErrorIs(t, raw.Ping(context.Background()).Err(), redis.ErrClosed)

	_, ok = Raw(NewMemory(""))
	assert.False(t, ok)
}

func TestNamespace(t *testing.T) {
	assert.Equal(t, "crmfront:rl:", Namespace("crmfront", "rl"))
	assert.Equal(t, "rl:", Namespace("", "rl"))
}
