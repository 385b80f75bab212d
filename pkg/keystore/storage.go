package keystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wallet-signer/pkg/crypto_util"
	"wallet-signer/pkg/errno"
	"wallet-signer/pkg/logger"
	"wallet-signer/pkg/safe_random"
	"wallet-signer/pkg/securestore"

	"go.uber.org/zap"
)

// DefaultIterations PBKDF2 默认迭代次数
const DefaultIterations = 600_000

// SecureKeyStorage 负责密钥秘密的加密持久化。
// 方案: PBKDF2-HMAC-SHA256(password, salt) -> AES-256-GCM。
type SecureKeyStorage struct {
	store      securestore.Store
	iterations int
	now        func() time.Time
	log        *zap.Logger
}

type Option func(*SecureKeyStorage)

// WithIterations 设置新写入秘密使用的 PBKDF2 迭代次数
func WithIterations(n int) Option {
	return func(s *SecureKeyStorage) {
		s.iterations = n
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *SecureKeyStorage) {
		s.now = now
	}
}

func NewSecureKeyStorage(store securestore.Store, opts ...Option) *SecureKeyStorage {
	s := &SecureKeyStorage{
		store:      store,
		iterations: DefaultIterations,
		now:        time.Now,
		log:        logger.Named("keystore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Iterations 新写入时使用的迭代次数
func (s *SecureKeyStorage) Iterations() int {
	return s.iterations
}

// Store 加密并保存秘密，覆盖之前的钱包
func (s *SecureKeyStorage) Store(ctx context.Context, secret []byte, password string, kind SecretKind, meta WalletMetadata) error {
	// 1. 随机盐 + 派生密钥
	salt, err := safe_random.Salt(crypto_util.SaltSize)
	if err != nil {
		return fmt.Errorf("%w: %v", errno.ErrKeyDerivation, err)
	}
	key, err := crypto_util.DeriveKey([]byte(password), salt, s.iterations)
	if err != nil {
		return err
	}
	defer clear(key)

	// 2. AES-256-GCM 加密
	iv, ciphertext, tag, err := crypto_util.EncryptAESGCMDetached(key, secret)
	if err != nil {
		return fmt.Errorf("%w: %v", errno.ErrKeyDerivation, err)
	}
	blob := EncodeBlob(iv, ciphertext, tag)

	// 3. 元数据
	meta.Version = MetadataVersion
	meta.KDFIterations = s.iterations
	meta.IsHD = kind == SecretMnemonic
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = s.now().UTC()
	}
	if meta.SecurityLevel == "" {
		meta.SecurityLevel = SecurityStandard
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	// 4. 记录现有条目，任何一步写入失败都恢复原状
	prev, err := s.snapshot(ctx)
	if err != nil {
		return err
	}

	// 5. 写入: 秘密 -> 盐 -> 元数据，元数据最后写入作为完成标记
	if err := s.write(ctx, kind, blob, salt, metaJSON, meta.SecurityLevel.AccessPolicy()); err != nil {
		if rbErr := s.rollback(ctx, prev); rbErr != nil {
			s.log.Error("回滚钱包条目失败", zap.Error(rbErr))
			return errors.Join(err, rbErr)
		}
		s.log.Warn("保存钱包失败，已恢复原有条目", zap.Error(err))
		return err
	}

	s.log.Info("钱包秘密已保存",
		zap.String("kind", kind.String()),
		zap.String("address", meta.Address),
		zap.String("security_level", string(meta.SecurityLevel)),
		zap.Int("kdf_iterations", s.iterations))
	return nil
}

func (s *SecureKeyStorage) write(ctx context.Context, kind SecretKind, blob, salt, metaJSON []byte, policy securestore.AccessPolicy) error {
	if err := s.store.Put(ctx, kind.entry(), blob, policy); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, kind.other().entry()); err != nil {
		return err
	}
	if err := s.store.Put(ctx, securestore.EntrySalt, salt, securestore.PolicyNone); err != nil {
		return err
	}
	return s.store.Put(ctx, securestore.EntryMetadata, metaJSON, securestore.PolicyNone)
}

// snapshot 读取全部条目的原始 (加密) 内容，不存在的条目记为 nil。
// 绕过访问策略: 这里只搬运密文，不解密。
func (s *SecureKeyStorage) snapshot(ctx context.Context) (map[string]*securestore.Entry, error) {
	raw := securestore.Unwrap(s.store)
	prev := make(map[string]*securestore.Entry, len(securestore.AllEntries))
	for _, name := range securestore.AllEntries {
		entry, err := raw.Get(ctx, name)
		switch {
		case errors.Is(err, securestore.ErrNotFound):
			prev[name] = nil
		case err != nil:
			return nil, err
		default:
			prev[name] = entry
		}
	}
	return prev, nil
}

// rollback 按 AllEntries 顺序写回快照，元数据最后恢复
func (s *SecureKeyStorage) rollback(ctx context.Context, prev map[string]*securestore.Entry) error {
	ctx = context.WithoutCancel(ctx)
	raw := securestore.Unwrap(s.store)
	var errs []error
	for _, name := range securestore.AllEntries {
		var err error
		if entry := prev[name]; entry != nil {
			err = raw.Put(ctx, name, entry.Value, entry.Policy)
		} else {
			err = raw.Delete(ctx, name)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Retrieve 解密并返回秘密。密码错误与密文被篡改不做区分，都返回 ErrPasswordIncorrect。
// 调用方负责清零返回的切片。
func (s *SecureKeyStorage) Retrieve(ctx context.Context, password string) ([]byte, error) {
	meta, err := s.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, errno.ErrWalletNotFound
	}

	kind := SecretPrivateKey
	if meta.IsHD {
		kind = SecretMnemonic
	}

	// 1. 读取并拆分密文块，长度检查先于密钥派生
	entry, err := s.store.Get(ctx, kind.entry())
	if err != nil {
		return nil, err
	}
	iv, ciphertext, tag, err := DecodeBlob(entry.Value)
	if err != nil {
		return nil, err
	}

	saltEntry, err := s.store.Get(ctx, securestore.EntrySalt)
	if errors.Is(err, securestore.ErrNotFound) {
		return nil, fmt.Errorf("%w: missing salt", errno.ErrCorruptStore)
	}
	if err != nil {
		return nil, err
	}

	// 2. 使用写入时记录的迭代次数
	iterations := meta.KDFIterations
	if iterations <= 0 {
		iterations = s.iterations
	}
	key, err := crypto_util.DeriveKey([]byte(password), saltEntry.Value, iterations)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrCorruptStore, err)
	}
	defer clear(key)

	// 3. 解密
	plaintext, err := crypto_util.DecryptAESGCMDetached(key, iv, ciphertext, tag)
	if err != nil {
		s.log.Warn("解密钱包秘密失败", zap.String("kind", kind.String()))
		return nil, errno.ErrPasswordIncorrect
	}
	return plaintext, nil
}

// HasStoredWallet 元数据存在即视为有钱包
func (s *SecureKeyStorage) HasStoredWallet(ctx context.Context) (bool, error) {
	return s.store.Has(ctx, securestore.EntryMetadata)
}

// Metadata 没有钱包时返回 (nil, nil)
func (s *SecureKeyStorage) Metadata(ctx context.Context) (*WalletMetadata, error) {
	entry, err := s.store.Get(ctx, securestore.EntryMetadata)
	if errors.Is(err, securestore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var meta WalletMetadata
	if err := json.Unmarshal(entry.Value, &meta); err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", errno.ErrCorruptStore, err)
	}
	return &meta, nil
}

// Delete 尽力删除所有条目，返回合并后的错误
func (s *SecureKeyStorage) Delete(ctx context.Context) error {
	var errs []error
	for _, name := range securestore.AllEntries {
		if err := s.store.Delete(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.log.Error("删除钱包条目失败", zap.Error(err))
		return err
	}
	s.log.Info("钱包已删除")
	return nil
}
