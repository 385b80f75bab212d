package crypto_util

import (
	"golang.org/x/crypto/sha3"
)

// Keccak256 计算输入的 Keccak256 哈希值 (以太坊使用的 pre-standard SHA-3)。
func Keccak256(data ...[]byte) []byte {
	hash := sha3.NewLegacyKeccak256()
	for _, d := range data {
		hash.Write(d)
	}
	return hash.Sum(nil)
}
