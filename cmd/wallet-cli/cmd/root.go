package cmd

import (
	"context"
	"fmt"
	"os"

	"wallet-signer/internal/app"
	"wallet-signer/pkg/config"
	"wallet-signer/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "wallet-cli",
	Short: "以太坊钱包签名命令行工具",
	Long: `管理本地加密保存的以太坊钱包。
支持创建/导入 HD 钱包与单私钥钱包、离线签名、EIP-712 结构化数据签名，以及通过 JSON-RPC 查询和广播交易。`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.Init("development")
		}
	},
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径 (默认查找 ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")
}

// openRuntime 加载配置并打开钱包会话，调用方负责 Close
func openRuntime(ctx context.Context) (*app.Runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, app.Options{Authenticator: terminalAuthenticator{}})
}

// withRuntime 为子命令提供会话并在结束时锁定、关闭
func withRuntime(fn func(ctx context.Context, rt *app.Runtime) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		rt, err := openRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()
		return fn(ctx, rt)
	}
}
