package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/ckbfs-faucet/internal/repository"
)

func TestCache_GetSetDelete(t *testing.T) {
	c := NewCache(0)
	defer c.Stop()
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrCacheMiss)

	value := []byte("identity")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'X'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "identity", string(got))

	got[0] = 'Y'
	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "identity", string(again))

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, repository.ErrCacheMiss)
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache(0)
	defer c.Stop()
	ctx := context.Background()

	now := time.Date(2020, 6, 11, 13, 5, 13, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Second))
	require.NoError(t, c.Set(ctx, "forever", []byte("v"), 0))

	_, err := c.Get(ctx, "short")
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = c.Get(ctx, "short")
	require.ErrorIs(t, err, repository.ErrCacheMiss)

	c.cleanup()
	require.Equal(t, 1, c.Len())

	_, err = c.Get(ctx, "forever")
	require.NoError(t, err)
}

func TestCache_StopIsIdempotent(t *testing.T) {
	c := NewCache(time.Millisecond)
	c.Stop()
	c.Stop()
}
