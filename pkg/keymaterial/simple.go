package keymaterial

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"wallet-signer/pkg/address"
	"wallet-signer/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SimpleKey 单个导入的私钥
type SimpleKey struct {
	mu      sync.RWMutex
	priv    *ecdsa.PrivateKey
	method  ImportMethod
	address common.Address
}

var _ KeyMaterial = (*SimpleKey)(nil)

// NewSimple 从 32 字节原始私钥构造，私钥必须位于 [1, n-1]
func NewSimple(key []byte) (*SimpleKey, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: got %d bytes", errno.ErrInvalidPrivateKeyLength, len(key))
	}
	priv, err := crypto.ToECDSA(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrInvalidPrivateKey, err)
	}
	return &SimpleKey{
		priv:    priv,
		method:  MethodPrivateKey,
		address: crypto.PubkeyToAddress(priv.PublicKey),
	}, nil
}

// NewSimpleFromHex 解析十六进制私钥 (0x 前缀可选)
func NewSimpleFromHex(s string) (*SimpleKey, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: not hex", errno.ErrInvalidPrivateKey)
	}
	defer clear(raw)
	return NewSimple(raw)
}

func (k *SimpleKey) Address() common.Address {
	return k.address
}

func (k *SimpleKey) ChecksumAddress() string {
	return address.ToChecksum(k.address)
}

// SignDigest crypto.Sign 已返回 v ∈ {0,1}，仍经过统一的规范化处理
func (k *SimpleKey) SignDigest(digest []byte) ([]byte, error) {
	if err := checkDigest(digest); err != nil {
		return nil, err
	}

	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.priv == nil {
		return nil, errno.ErrWalletLocked
	}

	sig, err := crypto.Sign(digest, k.priv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrSignatureFormat, err)
	}
	return NormalizeSignature(sig)
}

func (k *SimpleKey) ExportPrivateKey() ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.priv == nil {
		return nil, errno.ErrWalletLocked
	}
	return crypto.FromECDSA(k.priv), nil
}

func (k *SimpleKey) ImportMethod() ImportMethod {
	return k.method
}

func (k *SimpleKey) IsHD() bool {
	return false
}

func (k *SimpleKey) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.priv != nil {
		clear(k.priv.D.Bits())
		k.priv = nil
	}
}
