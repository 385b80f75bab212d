package wallet

import (
	"wallet-signer/pkg/eip712"
	"wallet-signer/pkg/errno"
	"wallet-signer/pkg/txcodec"
	"wallet-signer/pkg/txsigner"
)

var _ txsigner.DigestSigner = (*Session)(nil)

// SignDigest 用当前密钥对 32 字节摘要签名。没有密钥时返回 ErrWalletLocked。
func (s *Session) SignDigest(digest []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == nil {
		return nil, errno.ErrWalletLocked
	}
	return s.key.SignDigest(digest)
}

// TransactionSigner 返回借用本会话的签名器，会话锁定后它的调用同样失败
func (s *Session) TransactionSigner() (*txsigner.Signer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == nil {
		return nil, errno.ErrWalletLocked
	}
	return txsigner.New(s), nil
}

// SignHash 直接对调用方算好的摘要签名
func (s *Session) SignHash(digest []byte) ([]byte, error) {
	sig, err := s.SignDigest(digest)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSignature(signKindHash)
	return sig, nil
}

// SignMessage personal_sign
func (s *Session) SignMessage(msg []byte) ([]byte, error) {
	signer, err := s.TransactionSigner()
	if err != nil {
		return nil, err
	}
	sig, err := signer.SignPersonalMessage(msg)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSignature(signKindMessage)
	return sig, nil
}

func (s *Session) SignLegacy(tx *txcodec.LegacyTransaction) (*txcodec.SignedTransaction, error) {
	signer, err := s.TransactionSigner()
	if err != nil {
		return nil, err
	}
	signed, err := signer.SignLegacy(tx)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSignature(signKindLegacy)
	return signed, nil
}

func (s *Session) SignEIP1559(tx *txcodec.DynamicFeeTransaction) (*txcodec.SignedTransaction, error) {
	signer, err := s.TransactionSigner()
	if err != nil {
		return nil, err
	}
	signed, err := signer.SignEIP1559(tx)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSignature(signKindEIP1559)
	return signed, nil
}

func (s *Session) SignTypedData(td *eip712.TypedData) ([]byte, error) {
	signer, err := s.TransactionSigner()
	if err != nil {
		return nil, err
	}
	sig, err := signer.SignTypedData(td)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSignature(signKindTypedData)
	return sig, nil
}
