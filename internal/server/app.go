package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"wallet-signer/pkg/logger"

	"go.uber.org/zap"
)

// DefaultHost 签名服务只监听回环地址
const DefaultHost = "127.0.0.1"

type Config struct {
	Host     string
	HttpPort string
}

type App struct {
	httpServer *http.Server
}

func New(cfg Config, handler http.Handler) *App {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	return &App{
		httpServer: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, cfg.HttpPort),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run 启动服务并阻塞，直到 ctx 结束或收到关闭信号
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Start HTTP
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP Server", zap.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// 2. 等待退出
	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error("HTTP Server failure", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Shutting down server...")

	// 3. Graceful Shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP Server forced to shutdown", zap.Error(err))
		return err
	}
	logger.Info("Server exiting")
	return nil
}
