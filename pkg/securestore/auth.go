package securestore

import (
	"context"
	"errors"
	"fmt"

	"wallet-signer/pkg/errno"
)

// Authenticator 平台相关的用户验证 (生物识别 / 设备密码)
type Authenticator interface {
	// Authenticate 提示用户验证，allowFallback 表示是否允许回退到设备密码
	Authenticate(ctx context.Context, reason string, allowFallback bool) error
}

// AuthenticatorFunc 函数适配器
type AuthenticatorFunc func(ctx context.Context, reason string, allowFallback bool) error

func (f AuthenticatorFunc) Authenticate(ctx context.Context, reason string, allowFallback bool) error {
	return f(ctx, reason, allowFallback)
}

// AllowAll 所有验证直接通过，只适用于调用方自己已经完成用户验证的场景
var AllowAll Authenticator = AuthenticatorFunc(func(context.Context, string, bool) error { return nil })

// DenyBiometric 没有用户交互能力的进程 (如 wallet-server) 使用：
// 所有需要生物识别的条目一律拒绝，standard 条目不受影响
var DenyBiometric Authenticator = AuthenticatorFunc(func(context.Context, string, bool) error {
	return errors.New("no interactive authenticator available")
})

// gatedStore 在读取时按条目策略执行用户验证
type gatedStore struct {
	Store
	auth Authenticator
}

// Gate 包装任意后端，Get 时根据条目的 AccessPolicy 调用 auth。auth 为 nil 时使用 DenyBiometric。
func Gate(store Store, auth Authenticator) Store {
	if auth == nil {
		auth = DenyBiometric
	}
	return &gatedStore{Store: store, auth: auth}
}

// Unwrap 返回 Gate 之下的后端。只用于搬运仍然加密的条目 (如覆盖失败时回滚)，不能用于解密读取。
func Unwrap(store Store) Store {
	if g, ok := store.(*gatedStore); ok {
		return g.Store
	}
	return store
}

func (g *gatedStore) Get(ctx context.Context, key string) (*Entry, error) {
	entry, err := g.Store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	switch entry.Policy {
	case PolicyRequireBiometric:
		err = g.auth.Authenticate(ctx, "访问钱包密钥", true)
	case PolicyRequireBiometricOnly:
		err = g.auth.Authenticate(ctx, "访问钱包密钥", false)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrBiometricDeclined, err)
	}
	return entry, nil
}
