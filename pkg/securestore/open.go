package securestore

import (
	"context"
	"fmt"
	"io"

	"wallet-signer/pkg/config"
	"wallet-signer/pkg/logger"

	"go.uber.org/zap"
)

// Open 按配置创建存储后端。返回的 io.Closer 在进程退出时关闭底层连接。
func Open(ctx context.Context, cfg config.StoreConfig) (Store, io.Closer, error) {
	logger.Info("打开安全存储", zap.String("backend", cfg.Backend))

	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nopCloser{}, nil

	case "file":
		s, err := NewFileStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser{}, nil

	case "redis":
		client, err := ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		s := NewRedisStore(client, cfg.Redis.KeyPrefix)
		return s, s, nil

	case "postgres":
		db, err := ConnectPostgres(cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		s, err := openGormStore(db)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
