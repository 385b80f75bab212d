package txcodec

import (
	"fmt"
	"math/big"

	"wallet-signer/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// 交易类型前缀
const (
	LegacyTxType     uint8 = 0x00
	DynamicFeeTxType uint8 = 0x02
)

// SignedTransaction 可直接广播的已签名交易
type SignedTransaction struct {
	Raw  []byte
	Hash common.Hash
	V    *big.Int
	R    *big.Int
	S    *big.Int
	Type uint8
}

// RawHex 0x 前缀的十六进制原始交易，用于 eth_sendRawTransaction
func (t *SignedTransaction) RawHex() string {
	return hexutil.Encode(t.Raw)
}

// SplitSignature 将 65 字节签名拆分为 r, s 和恢复 id
func SplitSignature(sig []byte) (r, s *big.Int, recID byte, err error) {
	if len(sig) != 65 {
		return nil, nil, 0, fmt.Errorf("%w: signature length %d", errno.ErrSignatureFormat, len(sig))
	}
	recID = sig[64]
	if recID >= 27 {
		recID -= 27
	}
	if recID > 1 {
		return nil, nil, 0, fmt.Errorf("%w: recovery id %d", errno.ErrSignatureFormat, sig[64])
	}
	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	return r, s, recID, nil
}

// DecodeSigned 解析原始交易字节 (legacy RLP 或类型化交易)
func DecodeSigned(raw []byte) (*types.Transaction, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrInvalidTransaction, err)
	}
	return tx, nil
}

func toField(to *common.Address) []byte {
	// 合约创建: to 编码为空字符串 0x80
	if to == nil {
		return []byte{}
	}
	return to.Bytes()
}

func dataField(data []byte) []byte {
	if data == nil {
		return []byte{}
	}
	return data
}

func checkAmount(name string, v *big.Int) error {
	if v == nil {
		return fmt.Errorf("%w: %s is required", errno.ErrInvalidTransaction, name)
	}
	if v.Sign() < 0 {
		return fmt.Errorf("%w: %s is negative", errno.ErrInvalidTransaction, name)
	}
	return nil
}

func checkChainID(chainID *big.Int) error {
	if chainID == nil || chainID.Sign() <= 0 {
		return fmt.Errorf("%w: chain id must be positive", errno.ErrInvalidTransaction)
	}
	return nil
}
