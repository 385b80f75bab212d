package handler

import (
	"fmt"

	"wallet-signer/internal/handler/request"
	"wallet-signer/internal/handler/response"
	"wallet-signer/internal/service/wallet"
	"wallet-signer/pkg/errno"
	"wallet-signer/pkg/txcodec"
	"wallet-signer/pkg/units"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
)

type ChainHandler struct {
	session *wallet.Session
}

func NewChainHandler(session *wallet.Session) *ChainHandler {
	return &ChainHandler{session: session}
}

// Nonce GET /chain/nonce
func (h *ChainHandler) Nonce(c *gin.Context) {
	nonce, err := h.session.FetchNonce(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"nonce": nonce})
}

// Balance GET /chain/balance
func (h *ChainHandler) Balance(c *gin.Context) {
	bal, err := h.session.FetchBalance(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"wei":   bal.String(),
		"ether": units.FormatEther(bal),
	})
}

// BlockNumber GET /chain/block-number
func (h *ChainHandler) BlockNumber(c *gin.Context) {
	n, err := h.session.BlockNumber(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"block_number": n})
}

// Send POST /chain/send
func (h *ChainHandler) Send(c *gin.Context) {
	var req request.SendRawTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	raw, err := hexutil.Decode(req.Raw)
	if err != nil {
		response.Error(c, fmt.Errorf("%w: %v", errno.ErrInvalidTransaction, err))
		return
	}
	hash, err := h.session.SendTransaction(c.Request.Context(), &txcodec.SignedTransaction{Raw: raw})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"hash": hash.Hex()})
}

// Transfer POST /chain/transfer
// 查询 nonce 与费用，签名并广播
func (h *ChainHandler) Transfer(c *gin.Context) {
	var req request.TransferRequest
	if !bindJSON(c, &req) {
		return
	}

	// 1. 解析金额与费用
	value, err := units.ParseEther(req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}
	data, err := optionalHex(req.Data)
	if err != nil {
		response.Error(c, err)
		return
	}
	gasPrice, err := optionalGwei(req.GasPrice)
	if err != nil {
		response.Error(c, err)
		return
	}
	maxFee, err := optionalGwei(req.MaxFeePerGas)
	if err != nil {
		response.Error(c, err)
		return
	}
	tip, err := optionalGwei(req.MaxPriorityFeePerGas)
	if err != nil {
		response.Error(c, err)
		return
	}

	// 2. 签名并广播
	signed, err := h.session.Transfer(c.Request.Context(), wallet.TransferRequest{
		To:                   req.To,
		Value:                value,
		Data:                 data,
		GasLimit:             req.GasLimit,
		Nonce:                req.Nonce,
		Legacy:               req.Legacy,
		GasPrice:             gasPrice,
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: tip,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, newSignedTx(signed))
}
