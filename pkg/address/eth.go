package address

import (
	"encoding/hex"
	"fmt"
	"strings"

	"wallet-signer/pkg/crypto_util"
	"wallet-signer/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
)

// Parse 解析以太坊地址，接受可选的 0x 前缀，40 位十六进制，大小写不敏感
func Parse(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", errno.ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

// ParseStrict 与 Parse 相同，但混合大小写的输入必须带有正确的 EIP-55 校验和。
// 全小写或全大写视为未携带校验和。
func ParseStrict(s string) (common.Address, error) {
	addr, err := Parse(s)
	if err != nil {
		return common.Address{}, err
	}

	body := strip0x(strings.TrimSpace(s))
	if isMixedCase(body) && toChecksumAddress(body) != body {
		return common.Address{}, fmt.Errorf("%w: %s", errno.ErrChecksumMismatch, s)
	}
	return addr, nil
}

// ToChecksum 返回带 0x 前缀的 EIP-55 地址
func ToChecksum(addr common.Address) string {
	return "0x" + toChecksumAddress(hex.EncodeToString(addr.Bytes()))
}

// ChecksumHex 将任意大小写的十六进制地址转换为 EIP-55 形式
func ChecksumHex(s string) (string, error) {
	addr, err := Parse(s)
	if err != nil {
		return "", err
	}
	return ToChecksum(addr), nil
}

// PubKeyToAddress 将公钥字节 (非压缩格式, 65 bytes, 0x04... 或去掉前缀的 64 bytes) 转换为地址
func PubKeyToAddress(pubKeyBytes []byte) (common.Address, error) {
	// 1. 去掉前缀 0x04 (如果存在)
	switch {
	case len(pubKeyBytes) == 65 && pubKeyBytes[0] == 0x04:
		pubKeyBytes = pubKeyBytes[1:]
	case len(pubKeyBytes) == 64:
	default:
		return common.Address{}, fmt.Errorf("%w: 非压缩公钥长度错误 (%d)", errno.ErrInvalidAddress, len(pubKeyBytes))
	}

	// 2. Keccak-256 哈希, 取后 20 字节
	hash := crypto_util.Keccak256(pubKeyBytes)
	return common.BytesToAddress(hash[12:]), nil
}

// toChecksumAddress 实现 EIP-55 混合大小写校验 (输入不带 0x)
func toChecksumAddress(address string) string {
	address = strings.ToLower(address)
	hexHash := hex.EncodeToString(crypto_util.Keccak256([]byte(address)))

	var sb strings.Builder
	sb.Grow(len(address))
	for i := 0; i < len(address); i++ {
		char := address[i]
		// hash 的第 i 个半字节 >= 8 时字母大写
		if char >= 'a' && char <= 'f' && hexCharToInt(hexHash[i]) >= 8 {
			sb.WriteByte(char - 'a' + 'A')
		} else {
			sb.WriteByte(char)
		}
	}
	return sb.String()
}

func hexCharToInt(c byte) byte {
	if c >= '0' && c <= '9' {
		return c - '0'
	}
	if c >= 'a' && c <= 'f' {
		return c - 'a' + 10
	}
	return 0
}

func strip0x(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func isMixedCase(s string) bool {
	return strings.ToLower(s) != s && strings.ToUpper(s) != s
}
