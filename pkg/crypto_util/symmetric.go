package crypto_util

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"

	"wallet-signer/pkg/errno"
	"wallet-signer/pkg/safe_random"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// IVSize AES-GCM 标准 96-bit nonce
	IVSize = 12
	// TagSize 128-bit 认证标签
	TagSize = 16
	// KeySize AES-256
	KeySize = 32
	// SaltSize PBKDF2 盐长度
	SaltSize = 32
)

// DeriveKey 使用 PBKDF2-HMAC-SHA256 从密码派生 32 字节密钥。
// iterations 由调用方显式给出，这里不做任何默认值推断。
func DeriveKey(password, salt []byte, iterations int) ([]byte, error) {
	if iterations < 1 {
		return nil, fmt.Errorf("%w: iterations must be positive, got %d", errno.ErrKeyDerivation, iterations)
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", errno.ErrKeyDerivation)
	}
	return pbkdf2.Key(password, salt, iterations, KeySize, sha256.New), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: AES-256 key must be %d bytes, got %d", errno.ErrKeyDerivation, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithTagSize(block, TagSize)
}

// EncryptAESGCMDetached 使用 AES-256-GCM 加密，IV 随机生成，
// 认证标签从密文中拆出单独返回 (detached tag)。
func EncryptAESGCMDetached(key, plaintext []byte) (iv, ciphertext, tag []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, nil, err
	}

	iv, err = safe_random.Nonce(IVSize)
	if err != nil {
		return nil, nil, nil, err
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	split := len(sealed) - TagSize
	ciphertext = sealed[:split:split]
	tag = sealed[split:]
	return iv, ciphertext, tag, nil
}

// DecryptAESGCMDetached 校验标签并解密。标签不匹配返回 gcm 的原始错误，
// 由上层统一映射 (避免区分"密码错误"与"数据损坏")。
func DecryptAESGCMDetached(key, iv, ciphertext, tag []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("iv 长度错误: %d", len(iv))
	}
	if len(tag) != TagSize {
		return nil, fmt.Errorf("tag 长度错误: %d", len(tag))
	}

	sealed := make([]byte, 0, len(ciphertext)+TagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	defer clear(sealed)

	return gcm.Open(nil, iv, sealed, nil)
}
