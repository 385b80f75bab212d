package bip32

import (
	"fmt"
	"strconv"
	"strings"

	"wallet-signer/pkg/errno"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// Keychain 实现了 ExtendedKey 接口，封装了 hdkeychain.ExtendedKey
type Keychain struct {
	key *hdkeychain.ExtendedKey
}

func (k *Keychain) String() string {
	return k.key.String()
}

func (k *Keychain) ECPubKey() (*btcec.PublicKey, error) {
	return k.key.ECPubKey()
}

// ECPrivKey 返回椭圆曲线私钥
func (k *Keychain) ECPrivKey() (*btcec.PrivateKey, error) {
	return k.key.ECPrivKey()
}

func (k *Keychain) Derive(index uint32) (ExtendedKey, error) {
	childKey, err := k.key.Derive(index)
	if err != nil {
		return nil, fmt.Errorf("%w: 派生子密钥失败: %v", errno.ErrKeyDerivation, err)
	}
	return &Keychain{key: childKey}, nil
}

func (k *Keychain) IsPrivate() bool {
	return k.key.IsPrivate()
}

func (k *Keychain) Neuter() (ExtendedKey, error) {
	neuterKey, err := k.key.Neuter()
	if err != nil {
		return nil, fmt.Errorf("转换公钥失败: %w", err)
	}
	return &Keychain{key: neuterKey}, nil
}

func (k *Keychain) Zero() {
	k.key.Zero()
}

// Wallet 持有主密钥，派生出的子密钥由调用方负责 Zero
type Wallet struct {
	masterKey *Keychain
}

// NewMasterKeyFromSeed 使用 BIP-39 种子生成主密钥
// network 只影响 xprv/xpub 的版本字节，默认为 chaincfg.MainNetParams
func NewMasterKeyFromSeed(seed []byte, network *chaincfg.Params) (*Wallet, error) {
	if len(seed) < hdkeychain.MinSeedBytes || len(seed) > hdkeychain.MaxSeedBytes {
		return nil, ErrInvalidSeed
	}

	if network == nil {
		network = &chaincfg.MainNetParams
	}

	masterKey, err := hdkeychain.NewMaster(seed, network)
	if err != nil {
		return nil, fmt.Errorf("%w: 生成主密钥失败: %v", errno.ErrKeyDerivation, err)
	}

	return &Wallet{masterKey: &Keychain{key: masterKey}}, nil
}

func (w *Wallet) MasterKey() ExtendedKey {
	return w.masterKey
}

// Zero 清除主密钥
func (w *Wallet) Zero() {
	w.masterKey.Zero()
}

// ParsePath 将路径解析为子索引序列
// 支持格式: m/44'/60'/0'/0/0 或 m/44h/60h/0h/0/0
func ParsePath(path string) ([]uint32, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "m" {
		return nil, nil
	}
	if !strings.HasPrefix(path, "m/") {
		return nil, fmt.Errorf("%w: 路径必须以 m/ 开头: %q", errno.ErrInvalidDerivationPath, path)
	}

	segments := strings.Split(path[2:], "/")
	indexes := make([]uint32, 0, len(segments))
	for _, segment := range segments {
		isHardened := false
		if strings.HasSuffix(segment, "'") || strings.HasSuffix(segment, "h") || strings.HasSuffix(segment, "H") {
			isHardened = true
			segment = segment[:len(segment)-1]
		}

		val, err := strconv.ParseUint(segment, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: 无效的路径段 '%s'", errno.ErrInvalidDerivationPath, segment)
		}
		if val >= hdkeychain.HardenedKeyStart {
			return nil, fmt.Errorf("%w: 路径段越界 '%s'", errno.ErrInvalidDerivationPath, segment)
		}

		index := uint32(val)
		if isHardened {
			index += hdkeychain.HardenedKeyStart
		}
		indexes = append(indexes, index)
	}
	return indexes, nil
}

// DerivePath 解析路径并派生密钥，中间层密钥派生后立即清零
func (w *Wallet) DerivePath(path string) (ExtendedKey, error) {
	indexes, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	if len(indexes) == 0 {
		return w.masterKey, nil
	}

	var currentKey ExtendedKey = w.masterKey
	for _, index := range indexes {
		nextKey, err := currentKey.Derive(index)
		if currentKey != ExtendedKey(w.masterKey) {
			currentKey.Zero()
		}
		if err != nil {
			return nil, err
		}
		currentKey = nextKey
	}

	return currentKey, nil
}
