package wallet

import (
	"context"
	"fmt"
	"math/big"

	"wallet-signer/pkg/address"
	"wallet-signer/pkg/errno"
	"wallet-signer/pkg/txcodec"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// TransferGasLimit 普通 ETH 转账的 gas 上限
const TransferGasLimit = 21_000

func (s *Session) chain() (ChainClient, error) {
	if s.rpc == nil {
		return nil, fmt.Errorf("%w: rpc endpoint not configured", errno.ErrNetwork)
	}
	return s.rpc, nil
}

// FetchNonce 当前地址的 pending nonce。
// 连续发送多笔交易时调用方需要自行串行化 nonce 管理。
func (s *Session) FetchNonce(ctx context.Context) (uint64, error) {
	addr, err := s.Address()
	if err != nil {
		return 0, err
	}
	c, err := s.chain()
	if err != nil {
		return 0, err
	}
	return c.PendingNonce(ctx, addr)
}

// FetchBalance 查询余额，已解锁时缓存结果供 Balance 读取
func (s *Session) FetchBalance(ctx context.Context) (*big.Int, error) {
	addr, err := s.Address()
	if err != nil {
		return nil, err
	}
	c, err := s.chain()
	if err != nil {
		return nil, err
	}
	bal, err := c.Balance(ctx, addr)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.state == StateUnlocked && s.addr == addr {
		s.balance = new(big.Int).Set(bal)
	}
	s.mu.Unlock()
	return bal, nil
}

// Balance 最近一次 FetchBalance 的结果，锁定后归零
func (s *Session) Balance() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.balance == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(s.balance)
}

func (s *Session) BlockNumber(ctx context.Context) (uint64, error) {
	c, err := s.chain()
	if err != nil {
		return 0, err
	}
	return c.BlockNumber(ctx)
}

// SendTransaction 广播已签名交易，返回节点给出的交易哈希
func (s *Session) SendTransaction(ctx context.Context, signed *txcodec.SignedTransaction) (common.Hash, error) {
	if signed == nil || len(signed.Raw) == 0 {
		return common.Hash{}, fmt.Errorf("%w: empty transaction", errno.ErrInvalidTransaction)
	}
	c, err := s.chain()
	if err != nil {
		return common.Hash{}, err
	}

	// 1. 广播前确认字节可以被解析
	decoded, err := txcodec.DecodeSigned(signed.Raw)
	if err != nil {
		return common.Hash{}, err
	}

	// 2. 广播
	hash, err := c.SendRawTransaction(ctx, signed.Raw)
	if err != nil {
		s.log.Warn("广播交易失败", zap.String("tx_hash", decoded.Hash().Hex()), zap.Error(err))
		return common.Hash{}, err
	}
	s.log.Info("交易已广播",
		zap.String("tx_hash", hash.Hex()),
		zap.Uint64("nonce", decoded.Nonce()),
		zap.Uint8("type", decoded.Type()))
	return hash, nil
}

// TransferRequest 构造并发送一笔交易。未填写的 nonce 与费用字段从节点查询。
type TransferRequest struct {
	To       string // 为空表示合约创建，此时 Data 不能为空
	Value    *big.Int
	Data     []byte
	GasLimit uint64  // 0 时普通转账取 TransferGasLimit
	Nonce    *uint64 // nil 时使用 pending nonce

	Legacy               bool
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// Transfer 查询 nonce 与费用，签名后广播。节点不支持 London 时退回 legacy 交易。
func (s *Session) Transfer(ctx context.Context, req TransferRequest) (*txcodec.SignedTransaction, error) {
	// 1. 先检查授权，避免锁定状态下发起网络请求
	if _, err := s.TransactionSigner(); err != nil {
		return nil, err
	}
	c, err := s.chain()
	if err != nil {
		return nil, err
	}

	// 2. 参数
	var to *common.Address
	if req.To != "" {
		addr, err := address.Parse(req.To)
		if err != nil {
			return nil, err
		}
		to = &addr
	} else if len(req.Data) == 0 {
		return nil, fmt.Errorf("%w: contract creation without data", errno.ErrInvalidTransaction)
	}
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	gasLimit := req.GasLimit
	if gasLimit == 0 {
		if len(req.Data) > 0 {
			return nil, fmt.Errorf("%w: gas limit required for calls with data", errno.ErrInvalidTransaction)
		}
		gasLimit = TransferGasLimit
	}

	// 3. nonce
	var nonce uint64
	if req.Nonce != nil {
		nonce = *req.Nonce
	} else if nonce, err = s.FetchNonce(ctx); err != nil {
		return nil, err
	}

	// 4. 费用与签名
	var signed *txcodec.SignedTransaction
	legacy := req.Legacy
	var tip, maxFee *big.Int
	if !legacy {
		tip, maxFee, err = s.dynamicFees(ctx, c, req)
		if err != nil {
			return nil, err
		}
		if maxFee == nil {
			s.log.Info("节点未启用 London，使用 legacy 交易")
			legacy = true
		}
	}

	if legacy {
		gasPrice := req.GasPrice
		if gasPrice == nil {
			if gasPrice, err = c.SuggestGasPrice(ctx); err != nil {
				return nil, err
			}
		}
		signed, err = s.SignLegacy(&txcodec.LegacyTransaction{
			Nonce:    nonce,
			GasPrice: gasPrice,
			GasLimit: gasLimit,
			To:       to,
			Value:    value,
			Data:     req.Data,
			ChainID:  s.ChainID(),
		})
	} else {
		signed, err = s.SignEIP1559(&txcodec.DynamicFeeTransaction{
			ChainID:              s.ChainID(),
			Nonce:                nonce,
			MaxPriorityFeePerGas: tip,
			MaxFeePerGas:         maxFee,
			GasLimit:             gasLimit,
			To:                   to,
			Value:                value,
			Data:                 req.Data,
		})
	}
	if err != nil {
		return nil, err
	}

	// 5. 广播
	if _, err := s.SendTransaction(ctx, signed); err != nil {
		return nil, err
	}
	return signed, nil
}

// dynamicFees 返回 (tip, maxFee)。maxFee 为 nil 表示节点没有 base fee。
// 未指定 maxFee 时取 2*baseFee + tip。
func (s *Session) dynamicFees(ctx context.Context, c ChainClient, req TransferRequest) (*big.Int, *big.Int, error) {
	tip := req.MaxPriorityFeePerGas
	maxFee := req.MaxFeePerGas
	if tip != nil && maxFee != nil {
		if maxFee.Cmp(tip) < 0 {
			return nil, nil, fmt.Errorf("%w: maxFeePerGas below maxPriorityFeePerGas", errno.ErrInvalidTransaction)
		}
		return tip, maxFee, nil
	}

	baseFee, err := c.LatestBaseFee(ctx)
	if err != nil {
		return nil, nil, err
	}
	if baseFee == nil {
		return nil, nil, nil
	}
	if tip == nil {
		if tip, err = c.SuggestGasTipCap(ctx); err != nil {
			return nil, nil, err
		}
	}
	if maxFee == nil {
		maxFee = new(big.Int).Mul(baseFee, big.NewInt(2))
		maxFee.Add(maxFee, tip)
	}
	if maxFee.Cmp(tip) < 0 {
		return nil, nil, fmt.Errorf("%w: maxFeePerGas below maxPriorityFeePerGas", errno.ErrInvalidTransaction)
	}
	return tip, maxFee, nil
}
