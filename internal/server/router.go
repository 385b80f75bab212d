package server

import (
	"wallet-signer/internal/handler"
	"wallet-signer/internal/handler/response"
	"wallet-signer/internal/service/wallet"
	"wallet-signer/pkg/monitor"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPRouter 初始化签名服务的 Gin Engine，只应监听回环地址
func NewHTTPRouter(session *wallet.Session, metrics *monitor.WalletMetrics, gatherer prometheus.Gatherer) *gin.Engine {
	// 1. 创建 Engine (使用默认中间件: Logger, Recovery)
	r := gin.Default()

	// 2. 注册通用中间件
	r.Use(monitor.PrometheusMiddleware(metrics))

	// 3. 注册基础路由
	r.GET("/health", handler.HealthCheck)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	walletHandler := handler.NewWalletHandler(session)
	signHandler := handler.NewSignHandler(session)
	chainHandler := handler.NewChainHandler(session)

	// 4. 注册 API 路由组
	api := r.Group("/api/v1")
	{
		api.GET("/ping", func(c *gin.Context) {
			response.Success(c, gin.H{"pong": true})
		})

		w := api.Group("/wallet")
		w.GET("", walletHandler.Status)
		w.DELETE("", walletHandler.Delete)
		w.POST("/create", walletHandler.Create)
		w.POST("/import/mnemonic", walletHandler.ImportMnemonic)
		w.POST("/import/private-key", walletHandler.ImportPrivateKey)
		w.POST("/unlock", walletHandler.Unlock)
		w.POST("/lock", walletHandler.Lock)

		sign := api.Group("/sign")
		sign.POST("/hash", signHandler.SignHash)
		sign.POST("/message", signHandler.SignMessage)
		sign.POST("/typed-data", signHandler.SignTypedData)
		sign.POST("/transaction", signHandler.SignTransaction)

		chain := api.Group("/chain")
		chain.GET("/nonce", chainHandler.Nonce)
		chain.GET("/balance", chainHandler.Balance)
		chain.GET("/block-number", chainHandler.BlockNumber)
		chain.POST("/send", chainHandler.Send)
		chain.POST("/transfer", chainHandler.Transfer)
	}

	return r
}
