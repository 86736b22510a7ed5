package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each collection blob as a plain Redis string.
type RedisBackend struct {
	client *redis.Client
}

// RedisOptions mirrors the client settings the config layer carries.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
	PoolSize int
}

func NewRedisClient(opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,
	})
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if b.client == nil {
		return nil, false, fmt.Errorf("redis client is nil")
	}
	val, err := b.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	return val, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	if b.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := b.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	if b.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := b.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s from redis: %w", key, err)
	}
	return nil
}

func (b *RedisBackend) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}
