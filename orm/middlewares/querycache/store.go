package querycache

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
)

var errKeyNotFound = errors.New("querycache: key 不存在")

// Store 查询结果的缓存后端
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, expiration time.Duration) error
}

// MemoryStore 进程内缓存，适合单机和测试
type MemoryStore struct {
	c *cache.Cache
}

func NewMemoryStore(defaultExpiration, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		c: cache.New(defaultExpiration, cleanupInterval),
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	val, ok := m.c.Get(key)
	if !ok {
		return nil, errKeyNotFound
	}
	return val.([]byte), nil
}

func (m *MemoryStore) Set(_ context.Context, key string, val []byte, expiration time.Duration) error {
	m.c.Set(key, val, expiration)
	return nil
}
