package keymaterial

import (
	"fmt"
	"strings"
	"sync"

	"wallet-signer/pkg/address"
	"wallet-signer/pkg/bip32"
	"wallet-signer/pkg/bip39"
	"wallet-signer/pkg/errno"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
)

// HDKey 由 BIP-39 助记词经 BIP-32 路径派生的密钥
type HDKey struct {
	mu      sync.RWMutex
	priv    *btcec.PrivateKey
	words   []string
	path    string
	method  ImportMethod
	address common.Address
}

var _ KeyMaterial = (*HDKey)(nil)

// NewHD 校验助记词，生成种子并沿 path 派生出签名私钥
func NewHD(mnemonic, passphrase, path string, method ImportMethod) (*HDKey, error) {
	// 1. 助记词 -> 种子
	svc := bip39.NewMnemonicService()
	seed, err := svc.SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	defer clear(seed)

	// 2. 种子 -> 主密钥 -> 路径
	if path == "" {
		path = bip32.DefaultEthereumPath
	}
	wallet, err := bip32.NewMasterKeyFromSeed(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrKeyDerivation, err)
	}
	defer wallet.Zero()

	child, err := wallet.DerivePath(path)
	if err != nil {
		return nil, err
	}
	defer child.Zero()

	priv, err := child.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrKeyDerivation, err)
	}

	// 3. 公钥 -> 地址
	addr, err := address.PubKeyToAddress(priv.PubKey().SerializeUncompressed())
	if err != nil {
		priv.Zero()
		return nil, fmt.Errorf("%w: %v", errno.ErrKeyDerivation, err)
	}

	return &HDKey{
		priv:    priv,
		words:   strings.Fields(bip39.NormalizeMnemonic(mnemonic)),
		path:    path,
		method:  method,
		address: addr,
	}, nil
}

func (k *HDKey) Address() common.Address {
	return k.address
}

func (k *HDKey) ChecksumAddress() string {
	return address.ToChecksum(k.address)
}

// SignDigest 使用 btcec 紧凑签名。紧凑签名格式为 header(1) || r || s，
// header = 27 + recid (+4 表示压缩公钥)，这里重排为 r || s || recid。
func (k *HDKey) SignDigest(digest []byte) ([]byte, error) {
	if err := checkDigest(digest); err != nil {
		return nil, err
	}

	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.priv == nil {
		return nil, errno.ErrWalletLocked
	}

	compact := ecdsa.SignCompact(k.priv, digest, false)
	if len(compact) != SignatureLength {
		return nil, fmt.Errorf("%w: compact length %d", errno.ErrSignatureFormat, len(compact))
	}

	sig := make([]byte, SignatureLength)
	copy(sig, compact[1:])
	header := compact[0]
	if header >= 31 {
		header -= 4
	}
	sig[64] = header
	return NormalizeSignature(sig)
}

func (k *HDKey) ExportPrivateKey() ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.priv == nil {
		return nil, errno.ErrWalletLocked
	}
	return k.priv.Serialize(), nil
}

// Mnemonic 返回助记词单词列表的副本，用于备份展示
func (k *HDKey) Mnemonic() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return append([]string(nil), k.words...)
}

func (k *HDKey) DerivationPath() string {
	return k.path
}

func (k *HDKey) ImportMethod() ImportMethod {
	return k.method
}

func (k *HDKey) IsHD() bool {
	return true
}

func (k *HDKey) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.priv != nil {
		k.priv.Zero()
		k.priv = nil
	}
	clear(k.words)
	k.words = nil
}
