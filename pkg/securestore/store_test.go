package securestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"wallet-signer/pkg/config"
	"wallet-signer/pkg/errno"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// runStoreSuite 所有后端共享的行为测试
func runStoreSuite(t *testing.T, s Store) {
	ctx := context.Background()
	t.Cleanup(func() {
		for _, k := range AllEntries {
			_ = s.Delete(ctx, k)
		}
	})

	// 1. 不存在的条目
	_, err := s.Get(ctx, EntryMnemonic)
	require.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, errno.ErrWalletNotFound)
	has, err := s.Has(ctx, EntryMnemonic)
	require.NoError(t, err)
	assert.False(t, has)

	// 2. 写入并读取
	value := []byte{0x00, 0x01, 0xfe, 0xff, 'a'}
	require.NoError(t, s.Put(ctx, EntryMnemonic, value, PolicyRequireUnlock))
	value[0] = 0x42 // 调用方修改切片不应影响已存储的值

	e, err := s.Get(ctx, EntryMnemonic)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01, 0xfe, 0xff, 'a'}, e.Value)
	assert.Equal(t, PolicyRequireUnlock, e.Policy)
	assert.False(t, e.UpdatedAt.IsZero())

	// 3. 覆盖
	require.NoError(t, s.Put(ctx, EntryMnemonic, []byte("v2"), PolicyRequireBiometric))
	e, err = s.Get(ctx, EntryMnemonic)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), e.Value)
	assert.Equal(t, PolicyRequireBiometric, e.Policy)

	has, err = s.Has(ctx, EntryMnemonic)
	require.NoError(t, err)
	assert.True(t, has)

	// 4. 删除，重复删除不报错
	require.NoError(t, s.Delete(ctx, EntryMnemonic))
	require.NoError(t, s.Delete(ctx, EntryMnemonic))
	_, err = s.Get(ctx, EntryMnemonic)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	runStoreSuite(t, s)

	// 文件权限
	require.NoError(t, s.Put(context.Background(), EntrySalt, []byte("salt"), PolicyNone))
	info, err := os.Stat(filepath.Join(dir, EntrySalt+".json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())

	// 不留下临时文件
	matches, _ := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	assert.Empty(t, matches)
}

func TestFileStoreRejectsPathTraversal(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	err = s.Put(context.Background(), "../evil", []byte("x"), PolicyNone)
	assert.ErrorIs(t, err, errno.ErrStoreUnavailable)
}

func TestFileStoreCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, EntryMetadata+".json"), []byte("{not json"), 0600))

	_, err = s.Get(context.Background(), EntryMetadata)
	assert.ErrorIs(t, err, errno.ErrCorruptStore)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("WALLET_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("WALLET_TEST_REDIS_ADDR 未设置，跳过 Redis 测试")
	}
	client, err := ConnectRedis(context.Background(), addr, "", 0)
	require.NoError(t, err)
	s := NewRedisStore(client, "wallet-signer-test:")
	defer s.Close()
	runStoreSuite(t, s)
}

func TestGormStore(t *testing.T) {
	dsn := os.Getenv("WALLET_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("WALLET_TEST_POSTGRES_DSN 未设置，跳过 PostgreSQL 测试")
	}
	db, err := ConnectPostgres(dsn)
	require.NoError(t, err)
	s, err := NewGormStore(db)
	require.NoError(t, err)
	defer s.Close()
	runStoreSuite(t, s)
}

func TestGate(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStore()
	require.NoError(t, base.Put(ctx, EntryMnemonic, []byte("m"), PolicyRequireBiometricOnly))
	require.NoError(t, base.Put(ctx, EntryPrivateKey, []byte("k"), PolicyRequireBiometric))
	require.NoError(t, base.Put(ctx, EntrySalt, []byte("s"), PolicyNone))

	var calls []bool
	declined := AuthenticatorFunc(func(_ context.Context, _ string, allowFallback bool) error {
		calls = append(calls, allowFallback)
		return errors.New("user cancelled")
	})
	gated := Gate(base, declined)

	_, err := gated.Get(ctx, EntryMnemonic)
	assert.ErrorIs(t, err, errno.ErrBiometricDeclined)
	_, err = gated.Get(ctx, EntryPrivateKey)
	assert.ErrorIs(t, err, errno.ErrBiometricDeclined)
	assert.Equal(t, []bool{false, true}, calls)

	// 无需验证的条目不调用 Authenticator
	e, err := gated.Get(ctx, EntrySalt)
	require.NoError(t, err)
	assert.Equal(t, []byte("s"), e.Value)
	assert.Len(t, calls, 2)

	// AllowAll 全部通过
	e, err = Gate(base, AllowAll).Get(ctx, EntryMnemonic)
	require.NoError(t, err)
	assert.Equal(t, []byte("m"), e.Value)
}

func TestGateWithoutAuthenticator(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStore()
	require.NoError(t, base.Put(ctx, EntryMnemonic, []byte("m"), PolicyRequireBiometricOnly))
	require.NoError(t, base.Put(ctx, EntryPrivateKey, []byte("k"), PolicyRequireBiometric))
	require.NoError(t, base.Put(ctx, EntrySalt, []byte("s"), PolicyRequireUnlock))

	gated := Gate(base, nil)
	for _, key := range []string{EntryMnemonic, EntryPrivateKey} {
		_, err := gated.Get(ctx, key)
		assert.ErrorIs(t, err, errno.ErrBiometricDeclined, key)
	}
	e, err := gated.Get(ctx, EntrySalt)
	require.NoError(t, err)
	assert.Equal(t, []byte("s"), e.Value)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, closer, err := Open(ctx, config.StoreConfig{Backend: "memory"})
	require.NoError(t, err)
	require.NoError(t, closer.Close())
	assert.IsType(t, &MemoryStore{}, s)

	s, _, err = Open(ctx, config.StoreConfig{Backend: "file", Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, _, err = Open(ctx, config.StoreConfig{Backend: "etcd"})
	assert.Error(t, err)
}

// 建表失败 (这里是连接被拒绝) 时连接池必须被关闭
func TestOpenGormStoreClosesPoolOnFailure(t *testing.T) {
	dsn := "host=127.0.0.1 port=1 user=wallet dbname=wallet sslmode=disable connect_timeout=1"
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	_, err = openGormStore(db)
	assert.ErrorIs(t, err, errno.ErrStoreUnavailable)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.EqualError(t, sqlDB.Ping(), "sql: database is closed")
}
