package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wallet-signer/internal/service/wallet"
	"wallet-signer/pkg/errno"
	"wallet-signer/pkg/keymaterial"
	"wallet-signer/pkg/keystore"
	"wallet-signer/pkg/monitor"
	"wallet-signer/pkg/securestore"
	"wallet-signer/pkg/txcodec"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPrivateKey = "0x1ab42cc412b618bdea3a599e3c9bae199ebf030895b039e9db1e30dafb12b727"
	testAddress    = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
)

const mailJSON = `{"types":{"EIP712Domain":[{"name":"name","type":"string"},{"name":"version","type":"string"},{"name":"chainId","type":"uint256"},{"name":"verifyingContract","type":"address"}],
	"Person":[{"name":"name","type":"string"},{"name":"wallet","type":"address"}],
	"Mail":[{"name":"from","type":"Person"},{"name":"to","type":"Person"},{"name":"contents","type":"string"}]},
	"primaryType":"Mail",
	"domain":{"name":"Ether Mail","version":"1","chainId":1,"verifyingContract":"0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC"},
	"message":{"from":{"name":"Cow","wallet":"0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826"},"to":{"name":"Bob","wallet":"0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB"},"contents":"Hello, Bob!"}}`

type stubChain struct {
	sent [][]byte
}

func (s *stubChain) BlockNumber(ctx context.Context) (uint64, error) { return 42, nil }

func (s *stubChain) PendingNonce(ctx context.Context, addr common.Address) (uint64, error) {
	return 3, nil
}

func (s *stubChain) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil), nil
}

func (s *stubChain) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	s.sent = append(s.sent, raw)
	return crypto.Keccak256Hash(raw), nil
}

func (s *stubChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (s *stubChain) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (s *stubChain) LatestBaseFee(ctx context.Context) (*big.Int, error) {
	return big.NewInt(10_000_000_000), nil
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
	chain  *stubChain
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	metrics := monitor.NewWalletMetrics(reg)
	storage := keystore.NewSecureKeyStorage(securestore.NewMemoryStore(), keystore.WithIterations(1000))
	chain := &stubChain{}
	session, err := wallet.NewSession(context.Background(), wallet.Options{
		Storage: storage,
		RPC:     chain,
		ChainID: big.NewInt(507),
		Metrics: metrics,
	})
	require.NoError(t, err)
	return &testServer{router: NewHTTPRouter(session, metrics, reg), chain: chain}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func (s *testServer) importKey(t *testing.T) {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/v1/wallet/import/private-key",
		`{"private_key":"`+testPrivateKey+`","password":"p@ss"}`)
	require.Equal(t, http.StatusOK, code, env.Msg)
}

func TestPingAndHealth(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/api/v1/ping", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, errno.OK.Code, env.Code)
	assert.JSONEq(t, `{"pong":true}`, string(env.Data))

	code, _ = s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestWalletLifecycle(t *testing.T) {
	s := newTestServer(t)

	_, env := s.do(t, http.MethodGet, "/api/v1/wallet", "")
	var status struct {
		State   string `json:"state"`
		Address string `json:"address"`
		ChainID string `json:"chain_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, "no_wallet", status.State)
	assert.Equal(t, "507", status.ChainID)

	s.importKey(t)
	_, env = s.do(t, http.MethodGet, "/api/v1/wallet", "")
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, "unlocked", status.State)
	assert.Equal(t, testAddress, status.Address)

	code, _ := s.do(t, http.MethodPost, "/api/v1/wallet/lock", "")
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodPost, "/api/v1/wallet/unlock", `{"password":"wrong"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, errno.ErrPasswordIncorrect.Code, env.Code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/wallet/unlock", `{"password":"p@ss"}`)
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodPost, "/api/v1/wallet/import/private-key",
		`{"private_key":"`+testPrivateKey+`","password":"p@ss"}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, errno.ErrWalletExists.Code, env.Code)

	code, _ = s.do(t, http.MethodDelete, "/api/v1/wallet", "")
	assert.Equal(t, http.StatusOK, code)
	_, env = s.do(t, http.MethodGet, "/api/v1/wallet", "")
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, "no_wallet", status.State)
}

func TestCreateReturnsMnemonic(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/wallet/create", `{"strength":128,"password":"p@ss"}`)
	require.Equal(t, http.StatusOK, code, env.Msg)
	var out struct {
		Address  string   `json:"address"`
		Mnemonic []string `json:"mnemonic"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Len(t, out.Mnemonic, 12)
	assert.True(t, common.IsHexAddress(out.Address))
}

func TestBindErrors(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/wallet/create", `{"strength":100,"password":"p@ss"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errno.ErrBind.Code, env.Code)

	code, env = s.do(t, http.MethodPost, "/api/v1/wallet/unlock", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errno.ErrBind.Code, env.Code)

	code, env = s.do(t, http.MethodPost, "/api/v1/sign/hash", `{"hash":"0x1234"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errno.ErrBind.Code, env.Code)
}

func TestSignRoutesRequireUnlock(t *testing.T) {
	s := newTestServer(t)
	hash := "0x" + strings.Repeat("ab", 32)

	code, env := s.do(t, http.MethodPost, "/api/v1/sign/hash", `{"hash":"`+hash+`"}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, errno.ErrWalletLocked.Code, env.Code)

	s.importKey(t)
	code, env = s.do(t, http.MethodPost, "/api/v1/sign/hash", `{"hash":"`+hash+`"}`)
	require.Equal(t, http.StatusOK, code, env.Msg)
	var out struct {
		Signature string `json:"signature"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	sig, err := hexutil.Decode(out.Signature)
	require.NoError(t, err)
	assert.True(t, keymaterial.Verify(common.HexToAddress(testAddress), hexutil.MustDecode(hash), sig))

	s.do(t, http.MethodPost, "/api/v1/wallet/lock", "")
	code, env = s.do(t, http.MethodPost, "/api/v1/sign/message", `{"message":"hello"}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, errno.ErrWalletLocked.Code, env.Code)
}

func TestSignMessage(t *testing.T) {
	s := newTestServer(t)
	s.importKey(t)

	_, utf8 := s.do(t, http.MethodPost, "/api/v1/sign/message", `{"message":"hello"}`)
	_, hexed := s.do(t, http.MethodPost, "/api/v1/sign/message", `{"message":"0x68656c6c6f","encoding":"hex"}`)
	assert.Equal(t, errno.OK.Code, utf8.Code)
	assert.JSONEq(t, string(utf8.Data), string(hexed.Data))
}

func TestSignTypedData(t *testing.T) {
	s := newTestServer(t)
	s.importKey(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/sign/typed-data", mailJSON)
	require.Equal(t, http.StatusOK, code, env.Msg)
	var out struct {
		Hash      string `json:"hash"`
		Signature string `json:"signature"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "0xbe609aee343fb3c4b28e1df9e632fca64fcfaede20f02e86244efddf30957bd2", out.Hash)

	sig := hexutil.MustDecode(out.Signature)
	assert.True(t, keymaterial.Verify(common.HexToAddress(testAddress), hexutil.MustDecode(out.Hash), sig))

	code, env = s.do(t, http.MethodPost, "/api/v1/sign/typed-data", `{"types":{},"primaryType":"Missing"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errno.ErrInvalidTypedData.Code, env.Code)
}

func TestSignTransaction(t *testing.T) {
	s := newTestServer(t)
	s.importKey(t)

	body := `{"to":"0x3535353535353535353535353535353535353535","value":"1","nonce":0,"gas_limit":21000,"legacy":true,"gas_price":"1"}`
	code, env := s.do(t, http.MethodPost, "/api/v1/sign/transaction", body)
	require.Equal(t, http.StatusOK, code, env.Msg)
	var out struct {
		Raw  string `json:"raw"`
		Hash string `json:"hash"`
		Type uint8  `json:"type"`
		V    string `json:"v"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, txcodec.LegacyTxType, out.Type)
	v := hexutil.MustDecodeBig(out.V).Int64()
	assert.Contains(t, []int64{1049, 1050}, v)

	decoded, err := txcodec.DecodeSigned(hexutil.MustDecode(out.Raw))
	require.NoError(t, err)
	assert.Equal(t, out.Hash, decoded.Hash().Hex())
	assert.Empty(t, s.chain.sent, "sign/transaction must not broadcast")

	body = `{"to":"0x3535353535353535353535353535353535353535","value":"0.5","nonce":1,"gas_limit":21000,"max_fee_per_gas":"30","max_priority_fee_per_gas":"2"}`
	code, env = s.do(t, http.MethodPost, "/api/v1/sign/transaction", body)
	require.Equal(t, http.StatusOK, code, env.Msg)
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, txcodec.DynamicFeeTxType, out.Type)

	code, env = s.do(t, http.MethodPost, "/api/v1/sign/transaction",
		`{"to":"0x3535353535353535353535353535353535353535","nonce":0,"gas_limit":21000}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errno.ErrBind.Code, env.Code)
}

func TestChainRoutes(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/api/v1/chain/nonce", "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, errno.ErrNoWallet.Code, env.Code)

	s.importKey(t)
	_, env = s.do(t, http.MethodGet, "/api/v1/chain/nonce", "")
	assert.JSONEq(t, `{"nonce":3}`, string(env.Data))

	_, env = s.do(t, http.MethodGet, "/api/v1/chain/balance", "")
	assert.JSONEq(t, `{"wei":"1000000000000000000","ether":"1"}`, string(env.Data))

	_, env = s.do(t, http.MethodGet, "/api/v1/chain/block-number", "")
	assert.JSONEq(t, `{"block_number":42}`, string(env.Data))

	code, env = s.do(t, http.MethodPost, "/api/v1/chain/transfer",
		`{"to":"0x3535353535353535353535353535353535353535","value":"0.1"}`)
	require.Equal(t, http.StatusOK, code, env.Msg)
	require.Len(t, s.chain.sent, 1)

	var out struct {
		Raw string `json:"raw"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	code, env = s.do(t, http.MethodPost, "/api/v1/chain/send", `{"raw":"`+out.Raw+`"}`)
	require.Equal(t, http.StatusOK, code, env.Msg)
	assert.Len(t, s.chain.sent, 2)
	assert.True(t, bytes.Equal(s.chain.sent[0], s.chain.sent[1]))

	code, env = s.do(t, http.MethodPost, "/api/v1/chain/send", `{"raw":"0xdeadbeef"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errno.ErrInvalidTransaction.Code, env.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.importKey(t)
	s.do(t, http.MethodPost, "/api/v1/sign/message", `{"message":"hello"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `wallet_signatures_total{kind="message"} 1`)
	assert.Contains(t, body, `wallet_session_state{state="unlocked"} 1`)
	assert.Contains(t, body, `http_requests_total{method="POST",path="/api/v1/sign/message",status="200"} 1`)
}
