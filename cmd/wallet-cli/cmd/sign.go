package cmd

import (
	"context"
	"fmt"
	"os"

	"wallet-signer/internal/app"
	"wallet-signer/pkg/eip712"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	message   string
	typedFile string
)

var signMessageCmd = &cobra.Command{
	Use:   "sign-message",
	Short: "personal_sign 消息签名",
	RunE: withRuntime(func(ctx context.Context, rt *app.Runtime) error {
		password, err := readPassword()
		if err != nil {
			return err
		}
		if err := rt.Session.Unlock(ctx, password); err != nil {
			return err
		}
		sig, err := rt.Session.SignMessage([]byte(message))
		if err != nil {
			return err
		}
		fmt.Println(hexutil.Encode(sig))
		return nil
	}),
}

var signTypedCmd = &cobra.Command{
	Use:   "sign-typed",
	Short: "EIP-712 结构化数据签名",
	Long:  `读取 eth_signTypedData_v4 格式的 JSON 文件，显示签名哈希并签名。`,
	RunE: withRuntime(func(ctx context.Context, rt *app.Runtime) error {
		// 1. 读取并解析
		data, err := os.ReadFile(typedFile)
		if err != nil {
			return fmt.Errorf("读取输入文件失败: %w", err)
		}
		td, err := eip712.ParseJSON(data)
		if err != nil {
			return err
		}
		hash, err := td.SigningHash()
		if err != nil {
			return err
		}
		fmt.Printf("Primary type: %s\n", td.PrimaryType)
		fmt.Printf("Domain:       %s %s\n", td.Domain.Name, td.Domain.Version)
		fmt.Printf("Hash:         %s\n", hash.Hex())

		// 2. 解锁并签名
		password, err := readPassword()
		if err != nil {
			return err
		}
		if err := rt.Session.Unlock(ctx, password); err != nil {
			return err
		}
		sig, err := rt.Session.SignTypedData(td)
		if err != nil {
			return err
		}
		fmt.Printf("Signature:    %s\n", hexutil.Encode(sig))
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(signMessageCmd, signTypedCmd)

	signMessageCmd.Flags().StringVarP(&message, "message", "m", "", "待签名的消息")
	_ = signMessageCmd.MarkFlagRequired("message")

	signTypedCmd.Flags().StringVarP(&typedFile, "input", "i", "typed-data.json", "EIP-712 JSON 文件路径")
}
