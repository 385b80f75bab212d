package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WalletMetrics 钱包业务指标。所有方法允许 nil 接收者，未启用监控时直接忽略。
type WalletMetrics struct {
	UnlockAttempts *prometheus.CounterVec
	Signatures     *prometheus.CounterVec
	SessionState   *prometheus.GaugeVec
	RPCCalls       *prometheus.CounterVec
	RPCDuration    *prometheus.HistogramVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// 会话状态的取值，用于 SessionState 的 state 标签
var SessionStates = []string{"no_wallet", "locked", "unlocking", "unlocked"}

// NewWalletMetrics 在 reg 上注册指标，reg 为 nil 时不注册
func NewWalletMetrics(reg prometheus.Registerer) *WalletMetrics {
	factory := promauto.With(reg)
	return &WalletMetrics{
		UnlockAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_unlock_attempts_total",
			Help: "Wallet unlock attempts by result",
		}, []string{"result"}),
		Signatures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_signatures_total",
			Help: "Signatures produced by kind",
		}, []string{"kind"}),
		SessionState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wallet_session_state",
			Help: "1 for the current wallet session state, 0 otherwise",
		}, []string{"state"}),
		RPCCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_rpc_calls_total",
			Help: "JSON-RPC calls by method and outcome",
		}, []string{"method", "status"}),
		RPCDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wallet_rpc_duration_seconds",
			Help:    "JSON-RPC call latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: []float64{0.1, 0.3, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "path"}),
	}
}

func (m *WalletMetrics) ObserveUnlock(result string) {
	if m == nil {
		return
	}
	m.UnlockAttempts.WithLabelValues(result).Inc()
}

func (m *WalletMetrics) ObserveSignature(kind string) {
	if m == nil {
		return
	}
	m.Signatures.WithLabelValues(kind).Inc()
}

// SetState 当前状态置 1，其余置 0
func (m *WalletMetrics) SetState(state string) {
	if m == nil {
		return
	}
	for _, s := range SessionStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.SessionState.WithLabelValues(s).Set(v)
	}
}

func (m *WalletMetrics) ObserveRPC(method string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.RPCCalls.WithLabelValues(method, status).Inc()
	m.RPCDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
