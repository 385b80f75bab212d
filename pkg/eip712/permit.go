package eip712

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Permit ERC-2612 授权
type Permit struct {
	Owner    common.Address
	Spender  common.Address
	Value    *big.Int
	Nonce    *big.Int
	Deadline *big.Int
}

// PermitTypes Permit(address owner,address spender,uint256 value,uint256 nonce,uint256 deadline)
var PermitTypes = Types{
	"Permit": {
		{Name: "owner", Type: "address"},
		{Name: "spender", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
	},
}

// NewPermit 使用固定的 ERC-2612 结构构造 TypedData
func NewPermit(domain Domain, p Permit) *TypedData {
	return &TypedData{
		Types:       PermitTypes,
		PrimaryType: "Permit",
		Domain:      domain,
		Message: map[string]any{
			"owner":    p.Owner.Hex(),
			"spender":  p.Spender.Hex(),
			"value":    bigString(p.Value),
			"nonce":    bigString(p.Nonce),
			"deadline": bigString(p.Deadline),
		},
	}
}
