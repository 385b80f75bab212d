package units

import (
	"fmt"
	"math/big"
	"strings"

	"wallet-signer/pkg/errno"

	"github.com/shopspring/decimal"
)

const (
	EtherDecimals = 18
	GweiDecimals  = 9
)

// ParseEther "1.5" -> 1500000000000000000 wei
func ParseEther(s string) (*big.Int, error) {
	return parseUnits(s, EtherDecimals)
}

// ParseGwei "20" -> 20000000000 wei
func ParseGwei(s string) (*big.Int, error) {
	return parseUnits(s, GweiDecimals)
}

// ParseWei 整数 wei 字符串
func ParseWei(s string) (*big.Int, error) {
	return parseUnits(s, 0)
}

func parseUnits(s string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", errno.ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: negative amount %s", errno.ErrInvalidAmount, s)
	}

	wei := d.Shift(decimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("%w: %s has more than %d decimals", errno.ErrInvalidAmount, s, decimals)
	}
	return wei.BigInt(), nil
}

// FormatEther wei -> ether 字符串，去掉末尾的 0
func FormatEther(wei *big.Int) string {
	return formatUnits(wei, EtherDecimals)
}

func FormatGwei(wei *big.Int) string {
	return formatUnits(wei, GweiDecimals)
}

func formatUnits(wei *big.Int, decimals int32) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -decimals).String()
}
