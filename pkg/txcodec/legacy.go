package txcodec

import (
	"math/big"

	"wallet-signer/pkg/crypto_util"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// LegacyTransaction EIP-155 重放保护的传统交易
type LegacyTransaction struct {
	Nonce    uint64
	GasPrice *big.Int
	GasLimit uint64
	To       *common.Address // nil 表示合约创建
	Value    *big.Int
	Data     []byte
	ChainID  *big.Int
}

func (tx *LegacyTransaction) Validate() error {
	if err := checkChainID(tx.ChainID); err != nil {
		return err
	}
	if err := checkAmount("gasPrice", tx.GasPrice); err != nil {
		return err
	}
	return checkAmount("value", tx.Value)
}

// SigningPayload rlp([nonce, gasPrice, gasLimit, to, value, data, chainId, 0, 0])
func (tx *LegacyTransaction) SigningPayload() ([]byte, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes([]any{
		tx.Nonce,
		tx.GasPrice,
		tx.GasLimit,
		toField(tx.To),
		tx.Value,
		dataField(tx.Data),
		tx.ChainID,
		uint(0),
		uint(0),
	})
}

// SigningHash keccak256(SigningPayload)
func (tx *LegacyTransaction) SigningHash() (common.Hash, error) {
	payload, err := tx.SigningPayload()
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(crypto_util.Keccak256(payload)), nil
}

// LegacyV v = chainId*2 + 35 + recoveryId
func LegacyV(chainID *big.Int, recID byte) *big.Int {
	v := new(big.Int).Mul(chainID, big.NewInt(2))
	return v.Add(v, big.NewInt(35+int64(recID)))
}

// EncodeSigned rlp([nonce, gasPrice, gasLimit, to, value, data, v, r, s])
func (tx *LegacyTransaction) EncodeSigned(sig []byte) (*SignedTransaction, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	r, s, recID, err := SplitSignature(sig)
	if err != nil {
		return nil, err
	}
	v := LegacyV(tx.ChainID, recID)

	raw, err := rlp.EncodeToBytes([]any{
		tx.Nonce,
		tx.GasPrice,
		tx.GasLimit,
		toField(tx.To),
		tx.Value,
		dataField(tx.Data),
		v,
		r,
		s,
	})
	if err != nil {
		return nil, err
	}

	return &SignedTransaction{
		Raw:  raw,
		Hash: common.BytesToHash(crypto_util.Keccak256(raw)),
		V:    v,
		R:    r,
		S:    s,
		Type: LegacyTxType,
	}, nil
}
