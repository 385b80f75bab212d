package txsigner

import (
	"fmt"

	"wallet-signer/pkg/eip712"
	"wallet-signer/pkg/errno"
	"wallet-signer/pkg/keymaterial"
	"wallet-signer/pkg/logger"
	"wallet-signer/pkg/txcodec"

	"github.com/ethereum/go-ethereum/accounts"
	"go.uber.org/zap"
)

// DigestSigner 对 32 字节摘要签名，返回 r||s||v
type DigestSigner interface {
	SignDigest(digest []byte) ([]byte, error)
}

// Signer 把交易与结构化数据转换为摘要并交给 DigestSigner 签名。无状态，不做 I/O。
type Signer struct {
	key DigestSigner
}

func New(key DigestSigner) *Signer {
	return &Signer{key: key}
}

// sign 签名并再次规范化恢复 id
func (s *Signer) sign(digest []byte) ([]byte, error) {
	sig, err := s.key.SignDigest(digest)
	if err != nil {
		return nil, err
	}
	if len(sig) != keymaterial.SignatureLength {
		logger.Error("签名长度异常", zap.Int("length", len(sig)))
		return nil, fmt.Errorf("%w: key returned %d bytes", errno.ErrSignatureFormat, len(sig))
	}
	return keymaterial.NormalizeSignature(sig)
}

// SignLegacy EIP-155 传统交易
func (s *Signer) SignLegacy(tx *txcodec.LegacyTransaction) (*txcodec.SignedTransaction, error) {
	hash, err := tx.SigningHash()
	if err != nil {
		return nil, err
	}
	sig, err := s.sign(hash.Bytes())
	if err != nil {
		return nil, err
	}
	return tx.EncodeSigned(sig)
}

// SignEIP1559 动态费用交易
func (s *Signer) SignEIP1559(tx *txcodec.DynamicFeeTransaction) (*txcodec.SignedTransaction, error) {
	hash, err := tx.SigningHash()
	if err != nil {
		return nil, err
	}
	sig, err := s.sign(hash.Bytes())
	if err != nil {
		return nil, err
	}
	return tx.EncodeSigned(sig)
}

// SignTypedData EIP-712 签名，v ∈ {0,1}
func (s *Signer) SignTypedData(td *eip712.TypedData) ([]byte, error) {
	hash, err := td.SigningHash()
	if err != nil {
		return nil, err
	}
	return s.sign(hash.Bytes())
}

// SignPermit ERC-2612 Permit
func (s *Signer) SignPermit(domain eip712.Domain, permit eip712.Permit) ([]byte, error) {
	return s.SignTypedData(eip712.NewPermit(domain, permit))
}

// SignPersonalMessage EIP-191 personal_sign: keccak256("\x19Ethereum Signed Message:\n" + len + msg)
func (s *Signer) SignPersonalMessage(msg []byte) ([]byte, error) {
	return s.sign(accounts.TextHash(msg))
}
