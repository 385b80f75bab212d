package txcodec

import (
	"math/big"

	"wallet-signer/pkg/crypto_util"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
)

// DynamicFeeTransaction EIP-1559 交易
type DynamicFeeTransaction struct {
	ChainID              *big.Int
	Nonce                uint64
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	GasLimit             uint64
	To                   *common.Address
	Value                *big.Int
	Data                 []byte
	AccessList           types.AccessList
}

func (tx *DynamicFeeTransaction) Validate() error {
	if err := checkChainID(tx.ChainID); err != nil {
		return err
	}
	if err := checkAmount("maxPriorityFeePerGas", tx.MaxPriorityFeePerGas); err != nil {
		return err
	}
	if err := checkAmount("maxFeePerGas", tx.MaxFeePerGas); err != nil {
		return err
	}
	return checkAmount("value", tx.Value)
}

func (tx *DynamicFeeTransaction) fields() []any {
	accessList := tx.AccessList
	if accessList == nil {
		accessList = types.AccessList{}
	}
	return []any{
		tx.ChainID,
		tx.Nonce,
		tx.MaxPriorityFeePerGas,
		tx.MaxFeePerGas,
		tx.GasLimit,
		toField(tx.To),
		tx.Value,
		dataField(tx.Data),
		accessList,
	}
}

func typed(body []byte) []byte {
	out := make([]byte, 0, len(body)+1)
	out = append(out, DynamicFeeTxType)
	return append(out, body...)
}

// SigningPayload 0x02 || rlp([chainId, nonce, tip, feeCap, gas, to, value, data, accessList])
func (tx *DynamicFeeTransaction) SigningPayload() ([]byte, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	body, err := rlp.EncodeToBytes(tx.fields())
	if err != nil {
		return nil, err
	}
	return typed(body), nil
}

func (tx *DynamicFeeTransaction) SigningHash() (common.Hash, error) {
	payload, err := tx.SigningPayload()
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(crypto_util.Keccak256(payload)), nil
}

// EncodeSigned 0x02 || rlp([..., v, r, s])，v 即恢复 id
func (tx *DynamicFeeTransaction) EncodeSigned(sig []byte) (*SignedTransaction, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	r, s, recID, err := SplitSignature(sig)
	if err != nil {
		return nil, err
	}
	v := big.NewInt(int64(recID))

	body, err := rlp.EncodeToBytes(append(tx.fields(), v, r, s))
	if err != nil {
		return nil, err
	}
	raw := typed(body)

	return &SignedTransaction{
		Raw:  raw,
		Hash: common.BytesToHash(crypto_util.Keccak256(raw)),
		V:    v,
		R:    r,
		S:    s,
		Type: DynamicFeeTxType,
	}, nil
}
