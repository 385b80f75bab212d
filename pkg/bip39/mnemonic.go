package bip39

import (
	"fmt"
	"strings"

	"wallet-signer/pkg/errno"

	"github.com/tyler-smith/go-bip39"
)

// 允许的熵长度 (bits) 与对应的单词数
var strengthWords = map[int]int{
	128: 12,
	160: 15,
	192: 18,
	224: 21,
	256: 24,
}

// MnemonicService 提供助记词相关的功能
type MnemonicService struct{}

// NewMnemonicService 创建一个新的助记词服务实例
func NewMnemonicService() *MnemonicService {
	return &MnemonicService{}
}

// GenerateMnemonic 生成一个新的随机助记词 (BIP-39)。
// bitSize: 熵的位数，128 (12个单词) 到 256 (24个单词)，步长 32。
func (s *MnemonicService) GenerateMnemonic(bitSize int) (string, error) {
	if _, ok := strengthWords[bitSize]; !ok {
		return "", fmt.Errorf("%w: %d", errno.ErrInvalidStrength, bitSize)
	}

	// 生成熵
	entropy, err := bip39.NewEntropy(bitSize)
	if err != nil {
		return "", fmt.Errorf("生成熵失败: %w", err)
	}
	defer clear(entropy)

	// 从熵生成助记词
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("生成助记词失败: %w", err)
	}

	return mnemonic, nil
}

// ValidateMnemonic 验证助记词是否有效 (单词表 + 校验位)。
func (s *MnemonicService) ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(NormalizeMnemonic(mnemonic))
}

// MnemonicToSeed 将助记词转换为种子 (BIP-39 Seed)。
// password: 可选的密码 (Passphrase)，也就是 "第25个单词"。不需要时传空字符串 ""。
// 调用方应先通过 ValidateMnemonic 校验。
func (s *MnemonicService) MnemonicToSeed(mnemonic string, password string) []byte {
	return bip39.NewSeed(NormalizeMnemonic(mnemonic), password)
}

// SeedFromMnemonic 校验并生成种子
func (s *MnemonicService) SeedFromMnemonic(mnemonic, password string) ([]byte, error) {
	seed, err := bip39.NewSeedWithErrorChecking(NormalizeMnemonic(mnemonic), password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrInvalidMnemonic, err)
	}
	return seed, nil
}

// StrengthForWords 返回单词数对应的熵位数
func StrengthForWords(words int) (int, error) {
	for bits, n := range strengthWords {
		if n == words {
			return bits, nil
		}
	}
	return 0, fmt.Errorf("%w: %d words", errno.ErrInvalidStrength, words)
}

// WordsForStrength 返回熵位数对应的单词数
func WordsForStrength(bitSize int) (int, error) {
	n, ok := strengthWords[bitSize]
	if !ok {
		return 0, fmt.Errorf("%w: %d", errno.ErrInvalidStrength, bitSize)
	}
	return n, nil
}

// NormalizeMnemonic 合并多余空白并转为小写
func NormalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
}
