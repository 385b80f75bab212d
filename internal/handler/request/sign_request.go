package request

type SignHashRequest struct {
	Hash string `json:"hash" binding:"required,startswith=0x,len=66"`
}

type SignMessageRequest struct {
	Message  string `json:"message" binding:"required"`
	Encoding string `json:"encoding" binding:"omitempty,oneof=utf8 hex"`
}

// SignTransactionRequest 金额单位: value 为 ETH，费用字段为 Gwei
type SignTransactionRequest struct {
	To                   string  `json:"to" binding:"omitempty,eth_addr"`
	Value                string  `json:"value"`
	Data                 string  `json:"data" binding:"omitempty,startswith=0x"`
	Nonce                *uint64 `json:"nonce" binding:"required"`
	GasLimit             uint64  `json:"gas_limit" binding:"required,min=21000"`
	Legacy               bool    `json:"legacy"`
	GasPrice             string  `json:"gas_price" binding:"required_if=Legacy true"`
	MaxFeePerGas         string  `json:"max_fee_per_gas" binding:"required_if=Legacy false"`
	MaxPriorityFeePerGas string  `json:"max_priority_fee_per_gas" binding:"required_if=Legacy false"`
}

// TransferRequest 未填写的 nonce 与费用字段由节点给出
type TransferRequest struct {
	To                   string  `json:"to" binding:"required,eth_addr"`
	Value                string  `json:"value" binding:"required"`
	Data                 string  `json:"data" binding:"omitempty,startswith=0x"`
	Nonce                *uint64 `json:"nonce"`
	GasLimit             uint64  `json:"gas_limit"`
	Legacy               bool    `json:"legacy"`
	GasPrice             string  `json:"gas_price"`
	MaxFeePerGas         string  `json:"max_fee_per_gas"`
	MaxPriorityFeePerGas string  `json:"max_priority_fee_per_gas"`
}

type SendRawTransactionRequest struct {
	Raw string `json:"raw" binding:"required,startswith=0x"`
}
