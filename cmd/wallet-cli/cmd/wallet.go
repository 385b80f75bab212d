package cmd

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"wallet-signer/internal/app"
	"wallet-signer/internal/service/wallet"
	"wallet-signer/pkg/address"
	"wallet-signer/pkg/keystore"
	"wallet-signer/pkg/mpc"

	"github.com/spf13/cobra"
)

var (
	strength       int
	withPassphrase bool
	overwrite      bool
	securityLevel  string
	exportShares   int
	exportThresh   int
	assumeYes      bool
	recoverShares  []string
)

// createCmd 代表 create 命令
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "创建一个新的 HD 钱包",
	Long:  `生成新的 BIP-39 助记词，派生 m/44'/60'/0'/0/0 地址，并用密码加密保存。助记词只显示这一次。`,
	RunE: withRuntime(func(ctx context.Context, rt *app.Runtime) error {
		// 1. 可选的 BIP-39 passphrase
		var passphrase string
		if withPassphrase {
			var err error
			if passphrase, err = readSecret("请输入 BIP-39 passphrase: "); err != nil {
				return err
			}
		}

		// 2. 密码
		password, err := readNewPassword()
		if err != nil {
			return err
		}

		// 3. 生成并保存
		if strength == 0 {
			strength = rt.Config.Wallet.MnemonicStrength
		}
		words, err := rt.Session.Create(ctx, wallet.CreateRequest{
			Strength:      strength,
			Passphrase:    passphrase,
			Password:      password,
			SecurityLevel: keystore.SecurityLevel(securityLevel),
			Overwrite:     overwrite,
		})
		if err != nil {
			return err
		}

		addr, _ := rt.Session.Address()
		fmt.Println("---------------------------------------------------")
		fmt.Printf("助记词 (Mnemonic): \n%s\n", strings.Join(words, " "))
		fmt.Println("---------------------------------------------------")
		fmt.Printf("Ethereum Address: %s\n", address.ToChecksum(addr))
		fmt.Println("请妥善保管您的助记词！任何拥有助记词的人都可以控制该钱包的所有资产。")
		return nil
	}),
}

var importMnemonicCmd = &cobra.Command{
	Use:   "import-mnemonic",
	Short: "从助记词导入钱包",
	RunE: withRuntime(func(ctx context.Context, rt *app.Runtime) error {
		mnemonic, err := readSecret("请输入助记词: ")
		if err != nil {
			return err
		}
		var passphrase string
		if withPassphrase {
			if passphrase, err = readSecret("请输入 BIP-39 passphrase: "); err != nil {
				return err
			}
		}
		password, err := readNewPassword()
		if err != nil {
			return err
		}

		err = rt.Session.ImportMnemonic(ctx, wallet.ImportMnemonicRequest{
			Mnemonic:      mnemonic,
			Passphrase:    passphrase,
			Password:      password,
			SecurityLevel: keystore.SecurityLevel(securityLevel),
			Overwrite:     overwrite,
		})
		if err != nil {
			return err
		}
		return printAddress(rt)
	}),
}

var importKeyCmd = &cobra.Command{
	Use:   "import-key",
	Short: "导入十六进制私钥",
	RunE: withRuntime(func(ctx context.Context, rt *app.Runtime) error {
		key, err := readSecret("请输入私钥 (hex): ")
		if err != nil {
			return err
		}
		password, err := readNewPassword()
		if err != nil {
			return err
		}

		err = rt.Session.ImportPrivateKey(ctx, wallet.ImportPrivateKeyRequest{
			PrivateKey:    key,
			Password:      password,
			SecurityLevel: keystore.SecurityLevel(securityLevel),
			Overwrite:     overwrite,
		})
		if err != nil {
			return err
		}
		return printAddress(rt)
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "显示钱包状态与元数据",
	RunE: withRuntime(func(ctx context.Context, rt *app.Runtime) error {
		meta, err := rt.Session.Metadata(ctx)
		if err != nil {
			return err
		}
		if meta == nil {
			fmt.Println("尚未创建钱包，请先运行 'wallet-cli create'")
			return nil
		}
		fmt.Printf("Address:        %s\n", meta.Address)
		fmt.Printf("State:          %s\n", rt.Session.State())
		fmt.Printf("HD:             %t\n", meta.IsHD)
		if meta.IsHD {
			fmt.Printf("Path:           %s\n", meta.DerivationPath)
		}
		fmt.Printf("Import method:  %s\n", meta.ImportMethod)
		fmt.Printf("Security level: %s\n", meta.SecurityLevel)
		fmt.Printf("Created at:     %s\n", meta.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Printf("KDF iterations: %d\n", meta.KDFIterations)
		fmt.Printf("Chain ID:       %s\n", rt.Session.ChainID())
		return nil
	}),
}

var revealCmd = &cobra.Command{
	Use:   "reveal",
	Short: "重新显示助记词 (需要密码)",
	RunE: withRuntime(func(ctx context.Context, rt *app.Runtime) error {
		password, err := readPassword()
		if err != nil {
			return err
		}
		words, err := rt.Session.RevealMnemonic(ctx, password)
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(words, " "))
		return nil
	}),
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "导出私钥 (需要密码)，可选拆分为 Shamir 分片",
	RunE: withRuntime(func(ctx context.Context, rt *app.Runtime) error {
		password, err := readPassword()
		if err != nil {
			return err
		}
		key, err := rt.Session.ExportPrivateKey(ctx, password)
		if err != nil {
			return err
		}
		defer clear(key)

		if exportShares == 0 {
			fmt.Println(hex.EncodeToString(key))
			return nil
		}

		shares, err := mpc.Split(key, exportShares, exportThresh)
		if err != nil {
			return err
		}
		fmt.Printf("私钥已拆分为 %d 份，任意 %d 份可恢复:\n", exportShares, exportThresh)
		for i, s := range shares {
			fmt.Printf("Share %d: %s\n", i+1, s)
		}
		return nil
	}),
}

var recoverKeyCmd = &cobra.Command{
	Use:   "recover-key",
	Short: "从 Shamir 分片恢复私钥",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := mpc.Recover(recoverShares)
		if err != nil {
			return err
		}
		defer clear(key)
		fmt.Println(hex.EncodeToString(key))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "删除本地保存的钱包 (不可恢复)",
	RunE: withRuntime(func(ctx context.Context, rt *app.Runtime) error {
		if !assumeYes && !confirm("确认删除钱包？未备份的助记词或私钥将永久丢失") {
			return errors.New("已取消")
		}
		if err := rt.Session.Delete(ctx); err != nil {
			return err
		}
		fmt.Println("钱包已删除")
		return nil
	}),
}

func printAddress(rt *app.Runtime) error {
	addr, err := rt.Session.Address()
	if err != nil {
		return err
	}
	fmt.Printf("Ethereum Address: %s\n", address.ToChecksum(addr))
	return nil
}

func init() {
	rootCmd.AddCommand(createCmd, importMnemonicCmd, importKeyCmd, statusCmd, revealCmd, exportCmd, recoverKeyCmd, deleteCmd)

	for _, c := range []*cobra.Command{createCmd, importMnemonicCmd, importKeyCmd} {
		c.Flags().BoolVar(&overwrite, "overwrite", false, "覆盖已存在的钱包")
		c.Flags().StringVar(&securityLevel, "security-level", "", "standard | biometric | biometric_only (默认取配置)")
	}
	for _, c := range []*cobra.Command{createCmd, importMnemonicCmd} {
		c.Flags().BoolVar(&withPassphrase, "passphrase", false, "使用 BIP-39 passphrase")
	}
	createCmd.Flags().IntVarP(&strength, "strength", "s", 0, "熵位数 128/160/192/224/256 (默认取配置)")

	exportCmd.Flags().IntVarP(&exportShares, "shares", "n", 0, "拆分的分片总数 (N)，0 表示不拆分")
	exportCmd.Flags().IntVarP(&exportThresh, "threshold", "t", 2, "恢复所需的分片数 (M)")

	recoverKeyCmd.Flags().StringSliceVarP(&recoverShares, "shares", "S", nil, "分片列表 (逗号分隔)")
	_ = recoverKeyCmd.MarkFlagRequired("shares")

	deleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "跳过确认")
}
