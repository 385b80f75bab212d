package monitor

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoop(t *testing.T) {
	var m *WalletMetrics
	assert.NotPanics(t, func() {
		m.ObserveUnlock("success")
		m.ObserveSignature("legacy")
		m.SetState("locked")
		m.ObserveRPC("eth_blockNumber", nil, time.Millisecond)
	})
}

func TestWalletMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWalletMetrics(reg)

	m.ObserveUnlock("success")
	m.ObserveUnlock("wrong_password")
	m.ObserveUnlock("wrong_password")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.UnlockAttempts.WithLabelValues("wrong_password")))

	m.SetState("unlocked")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionState.WithLabelValues("unlocked")))
	m.SetState("locked")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SessionState.WithLabelValues("unlocked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionState.WithLabelValues("locked")))

	m.ObserveRPC("eth_getBalance", errors.New("boom"), time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCCalls.WithLabelValues("eth_getBalance", "error")))
}

func TestPrometheusMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewWalletMetrics(prometheus.NewRegistry())

	r := gin.New()
	r.Use(PrometheusMiddleware(m))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/ping", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestsTotal), "未匹配路由不计数")
}
