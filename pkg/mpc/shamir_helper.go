package mpc

import (
	"encoding/hex"
	"fmt"
	"strings"

	"wallet-signer/pkg/errno"

	"github.com/hashicorp/vault/shamir"
)

// Split 将秘密 (如导出的私钥) 切分为 parts 份，至少需要 threshold 份才能恢复
// return: parts 个 Share (Hex String)，每个 share 为 Y 值 || X 坐标 (1 字节)
func Split(secret []byte, parts, threshold int) ([]string, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty secret", errno.ErrBind)
	}

	sharesBytes, err := shamir.Split(secret, parts, threshold)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrBind, err)
	}

	shares := make([]string, 0, len(sharesBytes))
	for _, share := range sharesBytes {
		shares = append(shares, hex.EncodeToString(share))
		clear(share)
	}
	return shares, nil
}

// Recover 从至少 threshold 个 Share 中恢复秘密
func Recover(sharesHex []string) ([]byte, error) {
	sharesBytes := make([][]byte, 0, len(sharesHex))
	for _, s := range sharesHex {
		b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid share hex: %v", errno.ErrBind, err)
		}
		sharesBytes = append(sharesBytes, b)
	}

	// shares 数量不够或不匹配时 Combine 返回错误或错误的结果
	secret, err := shamir.Combine(sharesBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrBind, err)
	}
	return secret, nil
}
