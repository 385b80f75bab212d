package app

import (
	"context"
	"errors"
	"io"
	"math/big"

	"wallet-signer/internal/rpc"
	"wallet-signer/internal/service/wallet"
	"wallet-signer/pkg/config"
	"wallet-signer/pkg/keystore"
	"wallet-signer/pkg/logger"
	"wallet-signer/pkg/monitor"
	"wallet-signer/pkg/securestore"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

type Options struct {
	// Authenticator 为 nil 时 biometric 条目无法读取
	Authenticator securestore.Authenticator
}

// Runtime 进程内唯一的钱包会话及其依赖
type Runtime struct {
	Config   *config.Config
	Session  *wallet.Session
	Metrics  *monitor.WalletMetrics
	Registry *prometheus.Registry

	closers []io.Closer
}

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

// New 按配置组装存储、RPC 客户端和会话
func New(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	r := &Runtime{Config: cfg}

	// 1. 指标
	r.Registry = prometheus.NewRegistry()
	r.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	r.Metrics = monitor.NewWalletMetrics(r.Registry)

	// 2. 安全存储
	store, closer, err := securestore.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, closer)
	// 未提供 Authenticator 时 Gate 拒绝所有 biometric 条目
	store = securestore.Gate(store, opts.Authenticator)
	if cfg.WeakKDF() {
		logger.Warn("PBKDF2 迭代次数低于生产要求，仅用于开发环境",
			zap.Int("kdf_iterations", cfg.Wallet.KDFIterations),
			zap.Int("min_production", config.MinProductionKDFIterations))
	}
	storage := keystore.NewSecureKeyStorage(store, keystore.WithIterations(cfg.Wallet.KDFIterations))

	// 3. RPC
	var chain wallet.ChainClient
	if cfg.RPC.URL != "" {
		client, err := rpc.Dial(ctx, cfg.RPC.URL, rpc.Options{Timeout: cfg.RPC.Timeout, Metrics: r.Metrics})
		if err != nil {
			r.Close()
			return nil, err
		}
		r.closers = append(r.closers, closeFunc(func() error {
			client.Close()
			return nil
		}))
		chain = client
		checkChainID(ctx, client, cfg.Wallet.ChainID)
	} else {
		logger.Warn("未配置 rpc.url，链上操作不可用")
	}

	// 4. 会话
	r.Session, err = wallet.NewSession(ctx, wallet.Options{
		Storage:        storage,
		RPC:            chain,
		DerivationPath: cfg.Wallet.DerivationPath,
		SecurityLevel:  keystore.SecurityLevel(cfg.Wallet.SecurityLevel),
		ChainID:        big.NewInt(cfg.Wallet.ChainID),
		Metrics:        r.Metrics,
	})
	if err != nil {
		r.Close()
		return nil, err
	}

	logger.Info("钱包会话已就绪",
		zap.String("state", r.Session.State().String()),
		zap.String("store", cfg.Store.Backend),
		zap.Int64("chain_id", cfg.Wallet.ChainID))
	return r, nil
}

// Close 锁定会话并按创建的逆序关闭连接
func (r *Runtime) Close() error {
	if r.Session != nil {
		r.Session.Lock()
	}
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// checkChainID 节点链 ID 与配置不一致时签出的 EIP-155 交易会被节点拒绝，只记录告警
func checkChainID(ctx context.Context, client *rpc.Client, want int64) {
	got, err := client.ChainID(ctx)
	if err != nil {
		logger.Warn("查询节点 chain id 失败", zap.Error(err))
		return
	}
	if got.Cmp(big.NewInt(want)) != 0 {
		logger.Warn("节点 chain id 与配置不一致",
			zap.Int64("configured", want),
			zap.String("node", got.String()))
	}
}
