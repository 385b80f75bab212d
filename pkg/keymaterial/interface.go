package keymaterial

import (
	"github.com/ethereum/go-ethereum/common"
)

// ImportMethod 记录密钥的来源
type ImportMethod string

const (
	MethodGenerated  ImportMethod = "generated"
	MethodMnemonic   ImportMethod = "mnemonic"
	MethodPrivateKey ImportMethod = "private_key"
)

// SignatureLength r(32) || s(32) || v(1)
const SignatureLength = 65

// DigestLength 待签名摘要长度
const DigestLength = 32

// KeyMaterial 是一个已解锁的 secp256k1 签名密钥。
// HD 与单私钥两种实现对调用方完全透明。
type KeyMaterial interface {
	// Address 返回密钥对应的以太坊地址
	Address() common.Address
	// ChecksumAddress 返回 EIP-55 格式地址
	ChecksumAddress() string
	// SignDigest 对 32 字节摘要签名，不再做哈希。
	// 返回 65 字节 r||s||v，v 为恢复 id (0 或 1)
	SignDigest(digest []byte) ([]byte, error)
	// ExportPrivateKey 导出 32 字节原始私钥 (特权操作)
	ExportPrivateKey() ([]byte, error)
	// ImportMethod 返回导入方式
	ImportMethod() ImportMethod
	// IsHD 是否为助记词派生
	IsHD() bool
	// Destroy 清零内存中的私钥，之后的调用返回 ErrWalletLocked
	Destroy()
}
