package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"os"
	"time"

	"wallet-signer/pkg/errno"
	"wallet-signer/pkg/logger"
	"wallet-signer/pkg/monitor"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// DefaultTimeout 单次调用超时
const DefaultTimeout = 10 * time.Second

// Options Client 配置
type Options struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	Metrics    *monitor.WalletMetrics
}

// Client 以太坊 JSON-RPC 客户端，所有错误映射为 errno 中的网络类错误
type Client struct {
	c       *gethrpc.Client
	url     string
	timeout time.Duration
	metrics *monitor.WalletMetrics
	log     *zap.Logger
}

// Dial 建立 HTTP JSON-RPC 客户端 (HTTP 传输不会立即发起连接)
func Dial(ctx context.Context, url string, opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	c, err := gethrpc.DialOptions(ctx, url, gethrpc.WithHTTPClient(hc))
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", errno.ErrNetwork, url, err)
	}
	return &Client{
		c:       c,
		url:     url,
		timeout: opts.Timeout,
		metrics: opts.Metrics,
		log:     logger.Named("rpc"),
	}, nil
}

func (c *Client) Close() {
	c.c.Close()
}

// call 带超时的调用，记录指标并映射错误
func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := c.c.CallContext(ctx, result, method, args...)
	elapsed := time.Since(start)
	c.metrics.ObserveRPC(method, err, elapsed)

	if err != nil {
		mapped := mapError(ctx, err)
		c.log.Warn("rpc 调用失败",
			zap.String("method", method),
			zap.Duration("elapsed", elapsed),
			zap.Error(mapped))
		return mapped
	}
	c.log.Debug("rpc 调用完成", zap.String("method", method), zap.Duration("elapsed", elapsed))
	return nil
}

func mapError(ctx context.Context, err error) error {
	var (
		httpErr   gethrpc.HTTPError
		rpcErr    gethrpc.Error
		netErr    net.Error
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, os.ErrDeadlineExceeded),
		errors.Is(ctx.Err(), context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %v", errno.ErrNetworkTimeout, err)
	case errors.As(err, &httpErr):
		return fmt.Errorf("%w: %d %s", errno.ErrHTTPStatus, httpErr.StatusCode, httpErr.Status)
	case errors.As(err, &rpcErr):
		return fmt.Errorf("%w: code %d: %s", errno.ErrRPC, rpcErr.ErrorCode(), rpcErr.Error())
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, gethrpc.ErrNoResult):
		return fmt.Errorf("%w: %v", errno.ErrMalformedResponse, err)
	}
	return fmt.Errorf("%w: %v", errno.ErrNetwork, err)
}

func nullResult(method string) error {
	return fmt.Errorf("%w: %s returned null", errno.ErrMalformedResponse, method)
}

// BlockNumber eth_blockNumber
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var result *hexutil.Uint64
	if err := c.call(ctx, &result, "eth_blockNumber"); err != nil {
		return 0, err
	}
	if result == nil {
		return 0, nullResult("eth_blockNumber")
	}
	return uint64(*result), nil
}

// PendingNonce eth_getTransactionCount(addr, "pending")
func (c *Client) PendingNonce(ctx context.Context, addr common.Address) (uint64, error) {
	var result *hexutil.Uint64
	if err := c.call(ctx, &result, "eth_getTransactionCount", addr, "pending"); err != nil {
		return 0, err
	}
	if result == nil {
		return 0, nullResult("eth_getTransactionCount")
	}
	return uint64(*result), nil
}

// Balance eth_getBalance(addr, "latest")
func (c *Client) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return c.bigCall(ctx, "eth_getBalance", addr, "latest")
}

// SendRawTransaction eth_sendRawTransaction("0x...")
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var result *common.Hash
	if err := c.call(ctx, &result, "eth_sendRawTransaction", hexutil.Bytes(raw)); err != nil {
		return common.Hash{}, err
	}
	if result == nil {
		return common.Hash{}, nullResult("eth_sendRawTransaction")
	}
	return *result, nil
}

// ChainID eth_chainId
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.bigCall(ctx, "eth_chainId")
}

// SuggestGasPrice eth_gasPrice
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return c.bigCall(ctx, "eth_gasPrice")
}

// SuggestGasTipCap eth_maxPriorityFeePerGas
func (c *Client) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return c.bigCall(ctx, "eth_maxPriorityFeePerGas")
}

// LatestBaseFee 最新区块的 baseFeePerGas，London 之前的链返回 nil
func (c *Client) LatestBaseFee(ctx context.Context) (*big.Int, error) {
	var head *struct {
		BaseFee *hexutil.Big `json:"baseFeePerGas"`
	}
	if err := c.call(ctx, &head, "eth_getBlockByNumber", "latest", false); err != nil {
		return nil, err
	}
	if head == nil {
		return nil, nullResult("eth_getBlockByNumber")
	}
	if head.BaseFee == nil {
		return nil, nil
	}
	return head.BaseFee.ToInt(), nil
}

func (c *Client) bigCall(ctx context.Context, method string, args ...any) (*big.Int, error) {
	var result *hexutil.Big
	if err := c.call(ctx, &result, method, args...); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nullResult(method)
	}
	return result.ToInt(), nil
}
