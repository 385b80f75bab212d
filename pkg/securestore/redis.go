package securestore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"wallet-signer/pkg/errno"
	"wallet-signer/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	fieldValue     = "value"
	fieldPolicy    = "policy"
	fieldUpdatedAt = "updated_at"
)

// RedisStore 每个条目一个 hash: value / policy / updated_at
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// ConnectRedis 连接到 Redis 并测试连通性
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, unavailable("redis ping", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", addr))
	return rdb, nil
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte, policy AccessPolicy) error {
	err := s.client.HSet(ctx, s.key(key),
		fieldValue, value,
		fieldPolicy, string(policy),
		fieldUpdatedAt, s.now().UnixNano(),
	).Err()
	if err != nil {
		return unavailable("redis hset", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	fields, err := s.client.HGetAll(ctx, s.key(key)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, unavailable("redis hgetall", err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	value, ok := fields[fieldValue]
	if !ok {
		return nil, fmt.Errorf("%w: %s missing value", errno.ErrCorruptStore, key)
	}
	nanos, err := strconv.ParseInt(fields[fieldUpdatedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s updated_at: %v", errno.ErrCorruptStore, key, err)
	}

	return &Entry{
		Value:     []byte(value),
		Policy:    AccessPolicy(fields[fieldPolicy]),
		UpdatedAt: time.Unix(0, nanos),
	}, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return unavailable("redis del", err)
	}
	return nil
}

func (s *RedisStore) Has(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, unavailable("redis exists", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
