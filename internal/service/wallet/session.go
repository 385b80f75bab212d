package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"wallet-signer/pkg/bip32"
	"wallet-signer/pkg/bip39"
	"wallet-signer/pkg/errno"
	"wallet-signer/pkg/keymaterial"
	"wallet-signer/pkg/keystore"
	"wallet-signer/pkg/logger"
	"wallet-signer/pkg/monitor"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// DefaultStrength 新建钱包默认 256 位熵 (24 个单词)
const DefaultStrength = 256

// ChainClient 会话依赖的 JSON-RPC 能力，由 internal/rpc.Client 实现
type ChainClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	PendingNonce(ctx context.Context, addr common.Address) (uint64, error)
	Balance(ctx context.Context, addr common.Address) (*big.Int, error)
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	LatestBaseFee(ctx context.Context) (*big.Int, error)
}

type Options struct {
	Storage        *keystore.SecureKeyStorage
	RPC            ChainClient // 可为 nil，此时链上操作返回 ErrNetwork
	DerivationPath string
	SecurityLevel  keystore.SecurityLevel
	ChainID        *big.Int
	Metrics        *monitor.WalletMetrics
}

// Session 持有至多一个已解锁的密钥，是所有签名路径唯一的授权入口。
// transition 串行化状态切换；mu 为读写锁，签名持读锁，锁定/解锁持写锁。
type Session struct {
	storage *keystore.SecureKeyStorage
	rpc     ChainClient
	path    string
	level   keystore.SecurityLevel
	chainID *big.Int
	metrics *monitor.WalletMetrics
	log     *zap.Logger

	transition sync.Mutex

	mu      sync.RWMutex
	state   State
	key     keymaterial.KeyMaterial
	addr    common.Address
	balance *big.Int
}

// NewSession 根据存储中是否已有钱包决定初始状态 (NoWallet 或 Locked)
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	if opts.Storage == nil {
		return nil, errors.New("wallet: storage is required")
	}
	if opts.DerivationPath == "" {
		opts.DerivationPath = bip32.DefaultEthereumPath
	}
	if _, err := bip32.ParsePath(opts.DerivationPath); err != nil {
		return nil, err
	}
	if opts.SecurityLevel == "" {
		opts.SecurityLevel = keystore.SecurityStandard
	}
	if opts.ChainID == nil {
		opts.ChainID = big.NewInt(1)
	}

	s := &Session{
		storage: opts.Storage,
		rpc:     opts.RPC,
		path:    opts.DerivationPath,
		level:   opts.SecurityLevel,
		chainID: new(big.Int).Set(opts.ChainID),
		metrics: opts.Metrics,
		log:     logger.Named("wallet"),
	}

	meta, err := s.storage.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if meta != nil {
		s.addr = common.HexToAddress(meta.Address)
		s.setStateLocked(StateLocked)
	} else {
		s.setStateLocked(StateNoWallet)
	}
	s.mu.Unlock()
	return s, nil
}

// setStateLocked 调用方必须持有 mu 写锁
func (s *Session) setStateLocked(st State) {
	s.state = st
	s.metrics.SetState(st.String())
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.setStateLocked(st)
	s.mu.Unlock()
}

// dropKeyLocked 销毁当前密钥并清空余额缓存，调用方必须持有 mu 写锁
func (s *Session) dropKeyLocked() {
	if s.key != nil {
		s.key.Destroy()
		s.key = nil
	}
	s.balance = nil
}

type CreateRequest struct {
	Strength      int // 128/160/192/224/256，0 取 DefaultStrength
	Passphrase    string
	Password      string
	SecurityLevel keystore.SecurityLevel
	Overwrite     bool
}

// Create 生成新的 HD 钱包并保存，会话进入 Unlocked。
// 返回的助记词只展示这一次，之后只能通过 RevealMnemonic 重新取得。
func (s *Session) Create(ctx context.Context, req CreateRequest) ([]string, error) {
	if req.Password == "" {
		return nil, errno.ErrEmptyPassword
	}
	if req.Strength == 0 {
		req.Strength = DefaultStrength
	}

	// 1. 生成助记词
	mnemonic, err := bip39.NewMnemonicService().GenerateMnemonic(req.Strength)
	if err != nil {
		return nil, err
	}

	// 2. 派生密钥
	key, err := keymaterial.NewHD(mnemonic, req.Passphrase, s.path, keymaterial.MethodGenerated)
	if err != nil {
		return nil, err
	}
	words := key.Mnemonic()

	// 3. 加密保存并切换到 Unlocked
	secret := keystore.EncodeHDSecret(mnemonic, req.Passphrase)
	if err := s.install(ctx, key, secret, keystore.SecretMnemonic, req.Password, req.SecurityLevel, req.Overwrite); err != nil {
		return nil, err
	}
	return words, nil
}

type ImportMnemonicRequest struct {
	Mnemonic      string
	Passphrase    string
	Password      string
	SecurityLevel keystore.SecurityLevel
	Overwrite     bool
}

func (s *Session) ImportMnemonic(ctx context.Context, req ImportMnemonicRequest) error {
	if req.Password == "" {
		return errno.ErrEmptyPassword
	}
	mnemonic := bip39.NormalizeMnemonic(req.Mnemonic)
	key, err := keymaterial.NewHD(mnemonic, req.Passphrase, s.path, keymaterial.MethodMnemonic)
	if err != nil {
		return err
	}
	secret := keystore.EncodeHDSecret(mnemonic, req.Passphrase)
	return s.install(ctx, key, secret, keystore.SecretMnemonic, req.Password, req.SecurityLevel, req.Overwrite)
}

type ImportPrivateKeyRequest struct {
	PrivateKey    string // 十六进制，0x 前缀可选
	Password      string
	SecurityLevel keystore.SecurityLevel
	Overwrite     bool
}

func (s *Session) ImportPrivateKey(ctx context.Context, req ImportPrivateKeyRequest) error {
	if req.Password == "" {
		return errno.ErrEmptyPassword
	}
	key, err := keymaterial.NewSimpleFromHex(req.PrivateKey)
	if err != nil {
		return err
	}
	secret, err := key.ExportPrivateKey()
	if err != nil {
		key.Destroy()
		return err
	}
	return s.install(ctx, key, secret, keystore.SecretPrivateKey, req.Password, req.SecurityLevel, req.Overwrite)
}

// install 保存秘密并把 key 设为当前密钥。失败时 key 被销毁，secret 总会被清零。
func (s *Session) install(ctx context.Context, key keymaterial.KeyMaterial, secret []byte, kind keystore.SecretKind,
	password string, level keystore.SecurityLevel, overwrite bool) error {
	defer clear(secret)
	installed := false
	defer func() {
		if !installed {
			key.Destroy()
		}
	}()

	s.transition.Lock()
	defer s.transition.Unlock()

	exists, err := s.storage.HasStoredWallet(ctx)
	if err != nil {
		return err
	}
	if exists && !overwrite {
		return errno.ErrWalletExists
	}

	if level == "" {
		level = s.level
	}
	meta := keystore.WalletMetadata{
		ImportMethod:  key.ImportMethod(),
		SecurityLevel: level,
		Address:       key.ChecksumAddress(),
	}
	if kind == keystore.SecretMnemonic {
		meta.DerivationPath = s.path
	}
	if err := s.storage.Store(ctx, secret, password, kind, meta); err != nil {
		return err
	}

	s.mu.Lock()
	s.dropKeyLocked()
	s.key = key
	s.addr = key.Address()
	s.setStateLocked(StateUnlocked)
	s.mu.Unlock()
	installed = true

	s.log.Info("钱包已保存并解锁",
		zap.String("address", meta.Address),
		zap.String("import_method", string(meta.ImportMethod)),
		zap.Bool("overwrite", exists))
	return nil
}

// Unlock 同步解锁，等价于等待 UnlockAsync 的结果
func (s *Session) Unlock(ctx context.Context, password string) error {
	return <-s.UnlockAsync(ctx, password)
}

// UnlockAsync 在后台协程完成 PBKDF2 与密钥重建，结果通过 channel 返回。
// ctx 在派生过程中被取消时返回 ctx.Err()，派生出的密钥随即销毁，状态回到 Locked。
func (s *Session) UnlockAsync(ctx context.Context, password string) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- s.unlock(ctx, password)
	}()
	return done
}

type unlockResult struct {
	key keymaterial.KeyMaterial
	err error
}

func (s *Session) unlock(ctx context.Context, password string) error {
	s.transition.Lock()

	// 1. 状态检查
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	switch state {
	case StateNoWallet:
		s.transition.Unlock()
		return errno.ErrNoWallet
	case StateUnlocked:
		s.transition.Unlock()
		return nil
	}
	if err := ctx.Err(); err != nil {
		s.transition.Unlock()
		s.metrics.ObserveUnlock(unlockCancelled)
		return err
	}
	s.setState(StateUnlocking)

	// 2. 后台重建密钥
	results := make(chan unlockResult, 1)
	go func() {
		key, err := s.reconstruct(ctx, password)
		results <- unlockResult{key: key, err: err}
	}()

	select {
	case res := <-results:
		defer s.transition.Unlock()
		return s.finishUnlock(res)
	case <-ctx.Done():
		s.setState(StateLocked)
		s.metrics.ObserveUnlock(unlockCancelled)
		s.log.Warn("解锁已取消", zap.Error(ctx.Err()))
		// 工作协程结束前继续持有 transition，结果直接销毁
		go func() {
			defer s.transition.Unlock()
			if res := <-results; res.key != nil {
				res.key.Destroy()
			}
		}()
		return ctx.Err()
	}
}

// finishUnlock 调用方持有 transition
func (s *Session) finishUnlock(res unlockResult) error {
	if res.err != nil {
		s.setState(StateLocked)
		if errors.Is(res.err, errno.ErrPasswordIncorrect) {
			s.metrics.ObserveUnlock(unlockWrongPassword)
		} else {
			s.metrics.ObserveUnlock(unlockError)
		}
		s.log.Warn("解锁失败", zap.Error(res.err))
		return res.err
	}

	s.mu.Lock()
	s.dropKeyLocked()
	s.key = res.key
	s.addr = res.key.Address()
	s.setStateLocked(StateUnlocked)
	s.mu.Unlock()

	s.metrics.ObserveUnlock(unlockSuccess)
	s.log.Info("钱包已解锁", zap.String("address", res.key.ChecksumAddress()))
	return nil
}

// reconstruct 解密秘密并按元数据重建 HD 或单私钥密钥
func (s *Session) reconstruct(ctx context.Context, password string) (keymaterial.KeyMaterial, error) {
	meta, err := s.storage.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, errno.ErrWalletNotFound
	}

	secret, err := s.storage.Retrieve(ctx, password)
	if err != nil {
		return nil, err
	}
	defer clear(secret)

	var key keymaterial.KeyMaterial
	if meta.IsHD {
		mnemonic, passphrase := keystore.DecodeHDSecret(secret)
		path := meta.DerivationPath
		if path == "" {
			path = s.path
		}
		key, err = keymaterial.NewHD(mnemonic, passphrase, path, meta.ImportMethod)
	} else {
		key, err = keymaterial.NewSimple(secret)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: stored secret: %v", errno.ErrCorruptStore, err)
	}

	if meta.Address != "" && common.HexToAddress(meta.Address) != key.Address() {
		key.Destroy()
		return nil, fmt.Errorf("%w: address does not match metadata", errno.ErrCorruptStore)
	}
	return key, nil
}

// Lock 销毁密钥并清空余额缓存。总是成功，可重复调用。
// 写锁会等待进行中的签名结束。
func (s *Session) Lock() {
	s.transition.Lock()
	defer s.transition.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	wasUnlocked := s.key != nil
	s.dropKeyLocked()
	if s.state != StateNoWallet {
		s.setStateLocked(StateLocked)
	}
	if wasUnlocked {
		s.log.Info("钱包已锁定")
	}
}

// Delete 先锁定再删除存储中的全部条目，不可恢复
func (s *Session) Delete(ctx context.Context) error {
	s.transition.Lock()
	defer s.transition.Unlock()

	s.mu.Lock()
	s.dropKeyLocked()
	if s.state != StateNoWallet {
		s.setStateLocked(StateLocked)
	}
	s.mu.Unlock()

	if err := s.storage.Delete(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.addr = common.Address{}
	s.setStateLocked(StateNoWallet)
	s.mu.Unlock()
	return nil
}

// ExportPrivateKey 特权操作: 重新校验密码后返回 32 字节私钥，调用方负责清零
func (s *Session) ExportPrivateKey(ctx context.Context, password string) ([]byte, error) {
	key, err := s.reconstruct(ctx, password)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	s.log.Warn("私钥已导出", zap.String("address", key.ChecksumAddress()))
	return key.ExportPrivateKey()
}

type mnemonicHolder interface {
	Mnemonic() []string
}

// RevealMnemonic 重新校验密码后返回助记词，仅 HD 钱包可用
func (s *Session) RevealMnemonic(ctx context.Context, password string) ([]string, error) {
	meta, err := s.storage.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, errno.ErrWalletNotFound
	}
	if !meta.IsHD {
		return nil, errno.ErrNotHDWallet
	}

	key, err := s.reconstruct(ctx, password)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	holder, ok := key.(mnemonicHolder)
	if !ok {
		return nil, errno.ErrNotHDWallet
	}
	s.log.Warn("助记词已展示", zap.String("address", key.ChecksumAddress()))
	return holder.Mnemonic(), nil
}

// Address 已解锁时来自密钥，锁定时来自元数据
func (s *Session) Address() (common.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == StateNoWallet {
		return common.Address{}, errno.ErrNoWallet
	}
	return s.addr, nil
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Metadata 没有钱包时返回 (nil, nil)
func (s *Session) Metadata(ctx context.Context) (*keystore.WalletMetadata, error) {
	return s.storage.Metadata(ctx)
}

func (s *Session) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}
