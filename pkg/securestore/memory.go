package securestore

import (
	"bytes"
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore 进程内存储，条目永不过期。用于测试和临时会话。
type MemoryStore struct {
	c   *gocache.Cache
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		c:   gocache.New(gocache.NoExpiration, 0),
		now: time.Now,
	}
}

func (m *MemoryStore) Put(ctx context.Context, key string, value []byte, policy AccessPolicy) error {
	// 存副本，避免调用方之后清零或修改切片
	m.c.Set(key, &Entry{Value: bytes.Clone(value), Policy: policy, UpdatedAt: m.now()}, gocache.NoExpiration)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*Entry, error) {
	val, found := m.c.Get(key)
	if !found {
		return nil, ErrNotFound
	}
	return val.(*Entry).clone(), nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

func (m *MemoryStore) Has(ctx context.Context, key string) (bool, error) {
	_, found := m.c.Get(key)
	return found, nil
}
