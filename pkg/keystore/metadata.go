package keystore

import (
	"time"

	"wallet-signer/pkg/keymaterial"
	"wallet-signer/pkg/securestore"
)

// MetadataVersion 当前元数据格式版本
const MetadataVersion = 1

// SecurityLevel 钱包密钥的访问保护级别
type SecurityLevel string

const (
	SecurityStandard      SecurityLevel = "standard"
	SecurityBiometric     SecurityLevel = "biometric"
	SecurityBiometricOnly SecurityLevel = "biometric_only"
)

// AccessPolicy 映射到存储条目的访问策略
func (l SecurityLevel) AccessPolicy() securestore.AccessPolicy {
	switch l {
	case SecurityBiometric:
		return securestore.PolicyRequireBiometric
	case SecurityBiometricOnly:
		return securestore.PolicyRequireBiometricOnly
	default:
		return securestore.PolicyRequireUnlock
	}
}

// WalletMetadata 非敏感的钱包描述信息，明文保存
type WalletMetadata struct {
	Version        int                      `json:"version"`
	CreatedAt      time.Time                `json:"created_at"`
	ImportMethod   keymaterial.ImportMethod `json:"import_method"`
	SecurityLevel  SecurityLevel            `json:"security_level"`
	IsHD           bool                     `json:"is_hd"`
	DerivationPath string                   `json:"derivation_path,omitempty"`
	Address        string                   `json:"address"`
	KDFIterations  int                      `json:"kdf_iterations"`
}

// SecretKind 加密保存的秘密类型
type SecretKind int

const (
	SecretMnemonic SecretKind = iota
	SecretPrivateKey
)

func (k SecretKind) entry() string {
	if k == SecretPrivateKey {
		return securestore.EntryPrivateKey
	}
	return securestore.EntryMnemonic
}

func (k SecretKind) other() SecretKind {
	if k == SecretPrivateKey {
		return SecretMnemonic
	}
	return SecretPrivateKey
}

func (k SecretKind) String() string {
	if k == SecretPrivateKey {
		return "private_key"
	}
	return "mnemonic"
}
