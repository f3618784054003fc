package redis

import (
	"context"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/ckbfs-faucet/internal/config"
	"github.com/prn-tf/ckbfs-faucet/internal/repository"
)

func TestCache(t *testing.T) {
	addr := os.Getenv("FAUCET_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FAUCET_TEST_REDIS_ADDR not set")
	}

	host, rawPort, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(rawPort)
	require.NoError(t, err)

	ctx := context.Background()
	client, err := NewClient(ctx, config.RedisConfig{Host: host, Port: port, DialTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	c := NewCache(client)
	key := repository.CacheKeys.Identity("TYkNNrK4wjmche2i6WBAvajZ")

	require.NoError(t, c.Set(ctx, key, []byte("identity"), time.Minute))
	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "identity", string(got))

	require.NoError(t, c.Delete(ctx, key))
	_, err = c.Get(ctx, key)
	require.ErrorIs(t, err, repository.ErrCacheMiss)
}

func TestCache_Unavailable(t *testing.T) {
	_, err := NewClient(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: 1, DialTimeout: 100 * time.Millisecond})
	require.Error(t, err)
}
