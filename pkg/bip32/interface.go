package bip32

import (
	"fmt"

	"wallet-signer/pkg/errno"

	"github.com/btcsuite/btcd/btcec/v2"
)

// DefaultEthereumPath m/44'/60'/0'/0/0，BIP-44 以太坊账户 0 的第一个外部地址
const DefaultEthereumPath = "m/44'/60'/0'/0/0"

// ExtendedKey hdkeychain.ExtendedKey 的最小封装，keymaterial 只依赖这些方法
type ExtendedKey interface {
	String() string // xprv / xpub
	ECPubKey() (*btcec.PublicKey, error)
	ECPrivKey() (*btcec.PrivateKey, error)
	Derive(index uint32) (ExtendedKey, error)
	IsPrivate() bool
	Neuter() (ExtendedKey, error)
	Zero()
}

// HDWallet 主密钥 + 按路径派生
type HDWallet interface {
	MasterKey() ExtendedKey
	DerivePath(path string) (ExtendedKey, error)
}

var _ HDWallet = (*Wallet)(nil)

// ErrInvalidSeed 种子长度不在 16..64 字节之间
var ErrInvalidSeed = fmt.Errorf("%w: seed length out of range", errno.ErrKeyDerivation)
