package main

import (
	"context"

	"wallet-signer/internal/app"
	"wallet-signer/internal/server"
	"wallet-signer/pkg/config"
	"wallet-signer/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 0. 初始化 Config
	config.Init()
	cfg := &config.Global

	// 1. 初始化 Logger
	logger.Init(cfg.App.Env)
	defer logger.Sync()
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. 存储、RPC 与会话。服务端没有交互式用户验证，biometric 级别的条目无法读取
	ctx := context.Background()
	rt, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		logger.Fatal("初始化钱包失败", zap.Error(err))
	}
	defer rt.Close()

	// 3. HTTP
	router := server.NewHTTPRouter(rt.Session, rt.Metrics, rt.Registry)
	if err := server.New(server.Config{HttpPort: cfg.App.HttpPort}, router).Run(ctx); err != nil {
		logger.Error("服务异常退出", zap.Error(err))
	}
}
