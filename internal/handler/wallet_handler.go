package handler

import (
	"wallet-signer/internal/handler/request"
	"wallet-signer/internal/handler/response"
	"wallet-signer/internal/service/wallet"
	"wallet-signer/pkg/address"
	"wallet-signer/pkg/keystore"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	session *wallet.Session
}

func NewWalletHandler(session *wallet.Session) *WalletHandler {
	return &WalletHandler{session: session}
}

type walletStatus struct {
	State    string                   `json:"state"`
	Address  string                   `json:"address,omitempty"`
	ChainID  string                   `json:"chain_id"`
	Metadata *keystore.WalletMetadata `json:"metadata,omitempty"`
}

func (h *WalletHandler) status(c *gin.Context) (*walletStatus, error) {
	st := &walletStatus{
		State:   h.session.State().String(),
		ChainID: h.session.ChainID().String(),
	}
	if addr, err := h.session.Address(); err == nil {
		st.Address = address.ToChecksum(addr)
	}
	meta, err := h.session.Metadata(c.Request.Context())
	if err != nil {
		return nil, err
	}
	st.Metadata = meta
	return st, nil
}

func (h *WalletHandler) writeStatus(c *gin.Context) {
	st, err := h.status(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, st)
}

// Status GET /wallet
func (h *WalletHandler) Status(c *gin.Context) {
	h.writeStatus(c)
}

// Create POST /wallet/create
// 助记词只在这次响应中返回
func (h *WalletHandler) Create(c *gin.Context) {
	var req request.CreateWalletRequest
	if !bindJSON(c, &req) {
		return
	}

	words, err := h.session.Create(c.Request.Context(), wallet.CreateRequest{
		Strength:      req.Strength,
		Passphrase:    req.Passphrase,
		Password:      req.Password,
		SecurityLevel: keystore.SecurityLevel(req.SecurityLevel),
		Overwrite:     req.Overwrite,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	addr, _ := h.session.Address()
	response.Success(c, gin.H{
		"address":  address.ToChecksum(addr),
		"mnemonic": words,
	})
}

// ImportMnemonic POST /wallet/import/mnemonic
func (h *WalletHandler) ImportMnemonic(c *gin.Context) {
	var req request.ImportMnemonicRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.session.ImportMnemonic(c.Request.Context(), wallet.ImportMnemonicRequest{
		Mnemonic:      req.Mnemonic,
		Passphrase:    req.Passphrase,
		Password:      req.Password,
		SecurityLevel: keystore.SecurityLevel(req.SecurityLevel),
		Overwrite:     req.Overwrite,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.writeStatus(c)
}

// ImportPrivateKey POST /wallet/import/private-key
func (h *WalletHandler) ImportPrivateKey(c *gin.Context) {
	var req request.ImportPrivateKeyRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.session.ImportPrivateKey(c.Request.Context(), wallet.ImportPrivateKeyRequest{
		PrivateKey:    req.PrivateKey,
		Password:      req.Password,
		SecurityLevel: keystore.SecurityLevel(req.SecurityLevel),
		Overwrite:     req.Overwrite,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.writeStatus(c)
}

// Unlock POST /wallet/unlock
// 客户端断开时请求 context 被取消，解锁随之放弃
func (h *WalletHandler) Unlock(c *gin.Context) {
	var req request.UnlockRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.session.Unlock(c.Request.Context(), req.Password); err != nil {
		response.Error(c, err)
		return
	}
	h.writeStatus(c)
}

// Lock POST /wallet/lock
func (h *WalletHandler) Lock(c *gin.Context) {
	h.session.Lock()
	h.writeStatus(c)
}

// Delete DELETE /wallet
func (h *WalletHandler) Delete(c *gin.Context) {
	if err := h.session.Delete(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	h.writeStatus(c)
}
