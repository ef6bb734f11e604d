package querycache

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore 多实例之间共享缓存的时候用
type RedisStore struct {
	prefix string
	client redis.Cmdable
}

type RedisStoreOption func(store *RedisStore)

func NewRedisStore(client redis.Cmdable, opts ...RedisStoreOption) *RedisStore {
	res := &RedisStore{
		client: client,
		prefix: "querycache",
	}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

func RedisWithPrefix(prefix string) RedisStoreOption {
	return func(store *RedisStore) {
		store.prefix = prefix
	}
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errKeyNotFound
		}
		return nil, err
	}
	return val, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, val []byte, expiration time.Duration) error {
	return r.client.Set(ctx, r.key(key), val, expiration).Err()
}

func (r *RedisStore) key(key string) string {
	return r.prefix + ":" + key
}
