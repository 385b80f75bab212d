package eip712

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"wallet-signer/pkg/errno"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// jsonTypedData eth_signTypedData_v4 的 JSON 结构
type jsonTypedData struct {
	Types       Types          `json:"types"`
	PrimaryType string         `json:"primaryType"`
	Domain      jsonDomain     `json:"domain"`
	Message     map[string]any `json:"message"`
}

type jsonDomain struct {
	Name              string `json:"name,omitempty"`
	Version           string `json:"version,omitempty"`
	ChainID           any    `json:"chainId,omitempty"`
	VerifyingContract string `json:"verifyingContract,omitempty"`
	Salt              string `json:"salt,omitempty"`
}

// UnmarshalJSON 数字按 json.Number 解析，避免大整数丢失精度
func (td *TypedData) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw jsonTypedData
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %v", errno.ErrInvalidTypedData, err)
	}

	domain := Domain{
		Name:              raw.Domain.Name,
		Version:           raw.Domain.Version,
		VerifyingContract: raw.Domain.VerifyingContract,
	}
	if raw.Domain.ChainID != nil {
		chainID, err := toBigInt(raw.Domain.ChainID)
		if err != nil {
			return err
		}
		domain.ChainID = chainID
	}
	if raw.Domain.Salt != "" {
		salt, err := hexutil.Decode(raw.Domain.Salt)
		if err != nil {
			return fmt.Errorf("%w: domain salt: %v", errno.ErrInvalidTypedData, err)
		}
		domain.Salt = salt
	}

	// EIP712Domain 由 Domain 中存在的字段推导
	types := make(Types, len(raw.Types))
	for name, fields := range raw.Types {
		if name != DomainTypeName {
			types[name] = fields
		}
	}

	*td = TypedData{
		Types:       types,
		PrimaryType: raw.PrimaryType,
		Domain:      domain,
		Message:     raw.Message,
	}
	return nil
}

func (td TypedData) MarshalJSON() ([]byte, error) {
	types := make(Types, len(td.Types)+1)
	for name, fields := range td.Types {
		types[name] = fields
	}
	types[DomainTypeName] = td.Domain.Fields()

	raw := jsonTypedData{
		Types:       types,
		PrimaryType: td.PrimaryType,
		Domain: jsonDomain{
			Name:              td.Domain.Name,
			Version:           td.Domain.Version,
			VerifyingContract: td.Domain.VerifyingContract,
		},
		Message: td.Message,
	}
	if td.Domain.ChainID != nil {
		raw.Domain.ChainID = json.Number(td.Domain.ChainID.String())
	}
	if len(td.Domain.Salt) > 0 {
		raw.Domain.Salt = hexutil.Encode(td.Domain.Salt)
	}
	return json.Marshal(raw)
}

// ParseJSON 解析 eth_signTypedData_v4 格式
func ParseJSON(data []byte) (*TypedData, error) {
	var td TypedData
	if err := json.Unmarshal(data, &td); err != nil {
		return nil, err
	}
	return &td, nil
}

// bigString *big.Int 的 JSON 友好表示
func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
