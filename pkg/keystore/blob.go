package keystore

import (
	"bytes"
	"fmt"
	"strings"

	"wallet-signer/pkg/crypto_util"
	"wallet-signer/pkg/errno"
)

// MinBlobSize IV + 空密文 + Tag
const MinBlobSize = crypto_util.IVSize + crypto_util.TagSize

// EncodeBlob 布局: IV(12) || ciphertext || tag(16)
func EncodeBlob(iv, ciphertext, tag []byte) []byte {
	blob := make([]byte, 0, len(iv)+len(ciphertext)+len(tag))
	blob = append(blob, iv...)
	blob = append(blob, ciphertext...)
	return append(blob, tag...)
}

// DecodeBlob 拆分密文块，长度不足返回 ErrCorruptStore
func DecodeBlob(blob []byte) (iv, ciphertext, tag []byte, err error) {
	if len(blob) < MinBlobSize {
		return nil, nil, nil, fmt.Errorf("%w: blob is %d bytes, need at least %d", errno.ErrCorruptStore, len(blob), MinBlobSize)
	}
	iv = blob[:crypto_util.IVSize]
	ciphertext = blob[crypto_util.IVSize : len(blob)-crypto_util.TagSize]
	tag = blob[len(blob)-crypto_util.TagSize:]
	return iv, ciphertext, tag, nil
}

// EncodeHDSecret 助记词与可选的 BIP-39 passphrase 以 0x00 分隔
func EncodeHDSecret(mnemonic, passphrase string) []byte {
	if passphrase == "" {
		return []byte(mnemonic)
	}
	out := make([]byte, 0, len(mnemonic)+1+len(passphrase))
	out = append(out, mnemonic...)
	out = append(out, 0x00)
	return append(out, passphrase...)
}

func DecodeHDSecret(secret []byte) (mnemonic, passphrase string) {
	if i := bytes.IndexByte(secret, 0x00); i >= 0 {
		return string(secret[:i]), string(secret[i+1:])
	}
	return strings.TrimSpace(string(secret)), ""
}
