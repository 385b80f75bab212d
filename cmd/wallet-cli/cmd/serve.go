package cmd

import (
	"context"

	"wallet-signer/internal/app"
	"wallet-signer/internal/server"

	"github.com/spf13/cobra"
)

var serveHost string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动本地 HTTP 签名服务",
	RunE: withRuntime(func(ctx context.Context, rt *app.Runtime) error {
		router := server.NewHTTPRouter(rt.Session, rt.Metrics, rt.Registry)
		return server.New(server.Config{Host: serveHost, HttpPort: rt.Config.App.HttpPort}, router).Run(ctx)
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", server.DefaultHost, "监听地址")
}
