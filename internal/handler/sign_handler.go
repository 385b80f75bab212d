package handler

import (
	"fmt"
	"io"
	"math/big"

	"wallet-signer/internal/handler/request"
	"wallet-signer/internal/handler/response"
	"wallet-signer/internal/service/wallet"
	"wallet-signer/pkg/address"
	"wallet-signer/pkg/eip712"
	"wallet-signer/pkg/errno"
	"wallet-signer/pkg/txcodec"
	"wallet-signer/pkg/units"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
)

type SignHandler struct {
	session *wallet.Session
}

func NewSignHandler(session *wallet.Session) *SignHandler {
	return &SignHandler{session: session}
}

type signedTx struct {
	Raw  string `json:"raw"`
	Hash string `json:"hash"`
	Type uint8  `json:"type"`
	V    string `json:"v"`
	R    string `json:"r"`
	S    string `json:"s"`
}

func newSignedTx(tx *txcodec.SignedTransaction) signedTx {
	return signedTx{
		Raw:  tx.RawHex(),
		Hash: tx.Hash.Hex(),
		Type: tx.Type,
		V:    hexutil.EncodeBig(tx.V),
		R:    hexutil.EncodeBig(tx.R),
		S:    hexutil.EncodeBig(tx.S),
	}
}

// SignHash POST /sign/hash
// 直接对 32 字节摘要签名，不加任何前缀
func (h *SignHandler) SignHash(c *gin.Context) {
	var req request.SignHashRequest
	if !bindJSON(c, &req) {
		return
	}
	digest, err := hexutil.Decode(req.Hash)
	if err != nil {
		response.Error(c, fmt.Errorf("%w: %v", errno.ErrInvalidDigestLength, err))
		return
	}
	sig, err := h.session.SignHash(digest)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"signature": hexutil.Encode(sig)})
}

// SignMessage POST /sign/message (personal_sign)
func (h *SignHandler) SignMessage(c *gin.Context) {
	var req request.SignMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	msg := []byte(req.Message)
	if req.Encoding == "hex" {
		decoded, err := hexutil.Decode(req.Message)
		if err != nil {
			response.Error(c, fmt.Errorf("%w: message: %v", errno.ErrBind, err))
			return
		}
		msg = decoded
	}
	sig, err := h.session.SignMessage(msg)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"signature": hexutil.Encode(sig)})
}

// SignTypedData POST /sign/typed-data
// 请求体即 eth_signTypedData_v4 的 JSON
func (h *SignHandler) SignTypedData(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, fmt.Errorf("%w: %v", errno.ErrBind, err))
		return
	}
	td, err := eip712.ParseJSON(body)
	if err != nil {
		response.Error(c, err)
		return
	}
	hash, err := td.SigningHash()
	if err != nil {
		response.Error(c, err)
		return
	}
	sig, err := h.session.SignTypedData(td)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"hash":      hash.Hex(),
		"signature": hexutil.Encode(sig),
	})
}

// SignTransaction POST /sign/transaction
// 只签名不广播，所有字段由调用方给出
func (h *SignHandler) SignTransaction(c *gin.Context) {
	var req request.SignTransactionRequest
	if !bindJSON(c, &req) {
		return
	}

	// 1. 解析参数
	to, err := optionalAddress(req.To)
	if err != nil {
		response.Error(c, err)
		return
	}
	value, err := optionalEther(req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}
	data, err := optionalHex(req.Data)
	if err != nil {
		response.Error(c, err)
		return
	}

	// 2. 构造并签名
	var signed *txcodec.SignedTransaction
	if req.Legacy {
		gasPrice, err := units.ParseGwei(req.GasPrice)
		if err != nil {
			response.Error(c, err)
			return
		}
		signed, err = h.session.SignLegacy(&txcodec.LegacyTransaction{
			Nonce:    *req.Nonce,
			GasPrice: gasPrice,
			GasLimit: req.GasLimit,
			To:       to,
			Value:    value,
			Data:     data,
			ChainID:  h.session.ChainID(),
		})
		if err != nil {
			response.Error(c, err)
			return
		}
	} else {
		maxFee, err := units.ParseGwei(req.MaxFeePerGas)
		if err != nil {
			response.Error(c, err)
			return
		}
		tip, err := units.ParseGwei(req.MaxPriorityFeePerGas)
		if err != nil {
			response.Error(c, err)
			return
		}
		signed, err = h.session.SignEIP1559(&txcodec.DynamicFeeTransaction{
			ChainID:              h.session.ChainID(),
			Nonce:                *req.Nonce,
			MaxPriorityFeePerGas: tip,
			MaxFeePerGas:         maxFee,
			GasLimit:             req.GasLimit,
			To:                   to,
			Value:                value,
			Data:                 data,
		})
		if err != nil {
			response.Error(c, err)
			return
		}
	}

	response.Success(c, newSignedTx(signed))
}

func optionalAddress(s string) (*common.Address, error) {
	if s == "" {
		return nil, nil
	}
	addr, err := address.Parse(s)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func optionalEther(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	return units.ParseEther(s)
}

func optionalGwei(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	return units.ParseGwei(s)
}

func optionalHex(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: data: %v", errno.ErrInvalidTransaction, err)
	}
	return b, nil
}
