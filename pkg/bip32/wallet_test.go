package bip32

import (
	"encoding/hex"
	"errors"
	"testing"

	"wallet-signer/pkg/bip39"
	"wallet-signer/pkg/errno"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/crypto"
)

func TestNewMasterKeyFromSeed(t *testing.T) {
	// 使用 BIP-39 生成种子
	mnemonicService := bip39.NewMnemonicService()
	mnemonic, err := mnemonicService.GenerateMnemonic(128)
	if err != nil {
		t.Fatalf("生成助记词失败: %v", err)
	}
	seed := mnemonicService.MnemonicToSeed(mnemonic, "")

	wallet, err := NewMasterKeyFromSeed(seed, &chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("生成主密钥失败: %v", err)
	}
	if wallet.MasterKey() == nil {
		t.Fatalf("主密钥为空")
	}

	if _, err := NewMasterKeyFromSeed(seed[:8], nil); !errors.Is(err, ErrInvalidSeed) {
		t.Errorf("过短的种子应被拒绝, 得到 %v", err)
	}
}

// BIP-32 官方测试向量 1
func TestDerivePathVector(t *testing.T) {
	seed, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	wallet, err := NewMasterKeyFromSeed(seed, &chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("生成主密钥失败: %v", err)
	}

	cases := map[string]string{
		"m":         "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi",
		"m/0'":      "xprv9uHRZZhk6KAJC1avXpDAp4MDc3sQKNxDiPvvkX8Br5ngLNv1TxvUxt4cV1rGL5hj6KCesnDYUhd7oWgT11eZG7XnxHrnYeSvkzY7d2bhkJ7",
		"m/0h/1":    "xprv9wTYmMFdV23N2TdNG573QoEsfRrWKQgWeibmLntzniatZvR9BmLnvSxqu53Kw1UmYPxLgboyZQaXwTCg8MSY3H2EU4pWcQDnRnrVA1xe8fs",
		"m/0'/1/2'": "xprv9z4pot5VBttmtdRTWfWQmoH1taj2axGVzFqSb8C9xaxKymcFzXBDptWmT7FwuEzG3ryjH4ktypQSAewRiNMjANTtpgP4mLTj34bhnZX7UiM",
	}
	for path, want := range cases {
		key, err := wallet.DerivePath(path)
		if err != nil {
			t.Fatalf("派生路径 %s 失败: %v", path, err)
		}
		if got := key.String(); got != want {
			t.Errorf("路径 %s\n预期: %s\n实际: %s", path, want, got)
		}
	}

	// 主密钥在派生之后仍然可用
	if wallet.MasterKey().String() != cases["m"] {
		t.Errorf("派生过程不应修改主密钥")
	}
}

func TestDeriveEthereumAddress(t *testing.T) {
	svc := bip39.NewMnemonicService()
	seed := svc.MnemonicToSeed("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about", "")

	wallet, err := NewMasterKeyFromSeed(seed, nil)
	if err != nil {
		t.Fatal(err)
	}
	key, err := wallet.DerivePath(DefaultEthereumPath)
	if err != nil {
		t.Fatalf("派生 %s 失败: %v", DefaultEthereumPath, err)
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		t.Fatal(err)
	}
	addr := crypto.PubkeyToAddress(priv.ToECDSA().PublicKey)
	if addr.Hex() != "0x9858EfFD232B4033E47d90003D41EC34EcaEda94" {
		t.Errorf("地址不匹配: %s", addr.Hex())
	}

	// 验证公钥转换
	pubKey, err := key.Neuter()
	if err != nil {
		t.Fatalf("转换为扩展公钥失败: %v", err)
	}
	if pubKey.IsPrivate() {
		t.Errorf("Neuter() 应该返回公钥，但 IsPrivate() 返回 true")
	}
}

func TestParsePathInvalid(t *testing.T) {
	for _, p := range []string{"44'/60'", "m/abc", "m/44'/", "m/2147483648", "m//0", "x/0"} {
		if _, err := ParsePath(p); !errors.Is(err, errno.ErrInvalidDerivationPath) {
			t.Errorf("路径 %q 应返回 ErrInvalidDerivationPath, 得到 %v", p, err)
		}
	}
	idx, err := ParsePath("m/44'/60h/0H/0/7")
	if err != nil {
		t.Fatal(err)
	}
	want := []uint32{0x8000002c, 0x8000003c, 0x80000000, 0, 7}
	for i := range want {
		if idx[i] != want[i] {
			t.Errorf("索引 %d: 预期 %#x, 实际 %#x", i, want[i], idx[i])
		}
	}
}
