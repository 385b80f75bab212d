package keymaterial

import (
	"bytes"
	"fmt"

	"wallet-signer/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// NormalizeSignature 统一签名的恢复 id：v ∈ {27,28} 转为 {0,1}，{0,1} 保持不变。
// 返回新的切片，不修改入参。
func NormalizeSignature(sig []byte) ([]byte, error) {
	if len(sig) != SignatureLength {
		return nil, fmt.Errorf("%w: length %d", errno.ErrSignatureFormat, len(sig))
	}

	out := bytes.Clone(sig)
	switch v := out[64]; v {
	case 0, 1:
	case 27, 28:
		out[64] = v - 27
	default:
		return nil, fmt.Errorf("%w: recovery id %d", errno.ErrSignatureFormat, v)
	}
	return out, nil
}

// Verify 通过公钥恢复校验签名是否由 addr 产生
func Verify(addr common.Address, digest, sig []byte) bool {
	if len(digest) != DigestLength {
		return false
	}
	normalized, err := NormalizeSignature(sig)
	if err != nil {
		return false
	}
	pub, err := crypto.SigToPub(digest, normalized)
	if err != nil {
		return false
	}
	return crypto.PubkeyToAddress(*pub) == addr
}

func checkDigest(digest []byte) error {
	if len(digest) != DigestLength {
		return fmt.Errorf("%w: got %d bytes", errno.ErrInvalidDigestLength, len(digest))
	}
	return nil
}
