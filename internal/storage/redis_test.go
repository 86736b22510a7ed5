package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisBackend(t *testing.T) *RedisBackend {
	t.Helper()

	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisBackend(client)
}

func TestRedisBackend(t *testing.T) {
	backendContract(t, newMiniredisBackend(t))
}

func TestRedisBackendNilClient(t *testing.T) {
	b := NewRedisBackend(nil)
	ctx := context.Background()

	_, _, err := b.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, b.Set(ctx, "k", nil))
	assert.Error(t, b.Delete(ctx, "k"))
	assert.NoError(t, b.Close())
}
