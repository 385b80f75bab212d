package securestore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"wallet-signer/pkg/errno"
)

// AccessPolicy 读取条目时要求的用户验证级别
type AccessPolicy string

const (
	PolicyNone                 AccessPolicy = "none"
	PolicyRequireUnlock        AccessPolicy = "require_unlock"
	PolicyRequireBiometric     AccessPolicy = "require_biometric"
	PolicyRequireBiometricOnly AccessPolicy = "require_biometric_only" // 不允许回退到设备密码
)

// 固定的条目名称
const (
	EntryMnemonic   = "wallet_mnemonic"
	EntryPrivateKey = "wallet_private_key"
	EntrySalt       = "wallet_salt"
	EntryMetadata   = "wallet_metadata"
)

// AllEntries 钱包使用的全部条目
var AllEntries = []string{EntryMnemonic, EntryPrivateKey, EntrySalt, EntryMetadata}

// ErrNotFound 条目不存在
var ErrNotFound = fmt.Errorf("%w: entry not found", errno.ErrWalletNotFound)

// Entry 存储中的一条记录
type Entry struct {
	Value     []byte       `json:"value"`
	Policy    AccessPolicy `json:"policy"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (e *Entry) clone() *Entry {
	return &Entry{Value: bytes.Clone(e.Value), Policy: e.Policy, UpdatedAt: e.UpdatedAt}
}

// Store 以字符串为键的不透明安全存储。
// 写入的值已经由上层加密，后端只负责持久化和访问策略。
type Store interface {
	// Put 写入或覆盖条目
	Put(ctx context.Context, key string, value []byte, policy AccessPolicy) error
	// Get 读取条目，不存在时返回 ErrNotFound
	Get(ctx context.Context, key string) (*Entry, error)
	// Delete 删除条目，不存在不视为错误
	Delete(ctx context.Context, key string) error
	// Has 判断条目是否存在
	Has(ctx context.Context, key string) (bool, error)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", errno.ErrStoreUnavailable, op, err)
}
