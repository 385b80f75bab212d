package cmd

import (
	"context"
	"fmt"
	"math/big"

	"wallet-signer/internal/app"
	"wallet-signer/internal/service/wallet"
	"wallet-signer/pkg/units"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	txTo       string
	txValue    string
	txData     string
	txGasLimit uint64
	txNonce    int64
	txLegacy   bool
	txGasPrice string
	txMaxFee   string
	txTip      string
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "查询钱包地址余额",
	RunE: withRuntime(func(ctx context.Context, rt *app.Runtime) error {
		bal, err := rt.Session.FetchBalance(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s ETH (%s wei)\n", units.FormatEther(bal), bal)
		return nil
	}),
}

var nonceCmd = &cobra.Command{
	Use:   "nonce",
	Short: "查询钱包地址的 pending nonce",
	RunE: withRuntime(func(ctx context.Context, rt *app.Runtime) error {
		nonce, err := rt.Session.FetchNonce(ctx)
		if err != nil {
			return err
		}
		fmt.Println(nonce)
		return nil
	}),
}

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "签名并广播一笔交易",
	Long:  `未指定的 nonce 与费用从节点查询。默认发送 EIP-1559 交易，节点不支持时自动退回 legacy。`,
	RunE: withRuntime(func(ctx context.Context, rt *app.Runtime) error {
		// 1. 参数
		req, err := buildTransferRequest()
		if err != nil {
			return err
		}

		// 2. 显示交易详情供用户确认
		fmt.Println("\n================ 待签名交易 ================")
		fmt.Printf("Chain ID:   %s\n", rt.Session.ChainID())
		if txTo == "" {
			fmt.Println("To:         (合约创建)")
		} else {
			fmt.Printf("To:         %s\n", txTo)
		}
		fmt.Printf("Value:      %s ETH\n", units.FormatEther(req.Value))
		if req.Nonce != nil {
			fmt.Printf("Nonce:      %d\n", *req.Nonce)
		}
		fmt.Println("============================================")

		// 3. 解锁并发送
		password, err := readPassword()
		if err != nil {
			return err
		}
		if err := rt.Session.Unlock(ctx, password); err != nil {
			return err
		}
		signed, err := rt.Session.Transfer(ctx, req)
		if err != nil {
			return err
		}

		fmt.Printf("\n交易已广播\n")
		fmt.Printf("TxHash: %s\n", signed.Hash.Hex())
		return nil
	}),
}

func buildTransferRequest() (wallet.TransferRequest, error) {
	req := wallet.TransferRequest{
		To:       txTo,
		GasLimit: txGasLimit,
		Legacy:   txLegacy,
	}
	var err error
	if req.Value, err = units.ParseEther(txValue); err != nil {
		return req, err
	}
	if txData != "" {
		if req.Data, err = hexutil.Decode(txData); err != nil {
			return req, fmt.Errorf("data 不是有效的十六进制: %w", err)
		}
	}
	if txNonce >= 0 {
		n := uint64(txNonce)
		req.Nonce = &n
	}
	for _, f := range []struct {
		raw string
		dst **big.Int
	}{
		{txGasPrice, &req.GasPrice},
		{txMaxFee, &req.MaxFeePerGas},
		{txTip, &req.MaxPriorityFeePerGas},
	} {
		if f.raw == "" {
			continue
		}
		if *f.dst, err = units.ParseGwei(f.raw); err != nil {
			return req, err
		}
	}
	return req, nil
}

func init() {
	rootCmd.AddCommand(balanceCmd, nonceCmd, transferCmd)

	transferCmd.Flags().StringVar(&txTo, "to", "", "收款地址，留空表示合约创建")
	transferCmd.Flags().StringVar(&txValue, "value", "0", "金额 (ETH)")
	transferCmd.Flags().StringVar(&txData, "data", "", "调用数据 (0x 开头的十六进制)")
	transferCmd.Flags().Uint64Var(&txGasLimit, "gas-limit", 0, "gas 上限 (普通转账默认 21000)")
	transferCmd.Flags().Int64Var(&txNonce, "nonce", -1, "nonce (默认查询 pending nonce)")
	transferCmd.Flags().BoolVar(&txLegacy, "legacy", false, "发送 EIP-155 legacy 交易")
	transferCmd.Flags().StringVar(&txGasPrice, "gas-price", "", "legacy gas price (Gwei)")
	transferCmd.Flags().StringVar(&txMaxFee, "max-fee", "", "maxFeePerGas (Gwei)")
	transferCmd.Flags().StringVar(&txTip, "tip", "", "maxPriorityFeePerGas (Gwei)")
}
