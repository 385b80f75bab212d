package errno

import "errors"

// Kind 错误大类，调用方按类别决定处理方式 (重试、提示用户、上报)
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindCrypto
	KindStorage
	KindAuthorization
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindCrypto:
		return "crypto"
	case KindStorage:
		return "storage"
	case KindAuthorization:
		return "authorization"
	case KindNetwork:
		return "network"
	default:
		return "internal"
	}
}

// Errno defines the error code logic
type Errno struct {
	Code    int
	Kind    Kind
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var typed Errno
	if errors.As(err, &typed) {
		return typed.Code, err.Error()
	}
	var ptr *Errno
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code, err.Error()
	}
	return InternalServerError.Code, err.Error()
}

// KindOf 返回 err 链上第一个 Errno 的类别，未知错误归为 KindInternal
func KindOf(err error) Kind {
	var typed Errno
	if errors.As(err, &typed) {
		return typed.Kind
	}
	var ptr *Errno
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Kind
	}
	return KindInternal
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Kind: KindInternal, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Kind: KindInternal, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Kind: KindInvalidInput, Message: "Error occurred while binding the request body to the struct"}
)

// Invalid input (20000+)
var (
	ErrInvalidMnemonic         = Errno{Code: 20101, Kind: KindInvalidInput, Message: "invalid mnemonic"}
	ErrInvalidStrength         = Errno{Code: 20102, Kind: KindInvalidInput, Message: "invalid mnemonic strength"}
	ErrInvalidPrivateKeyLength = Errno{Code: 20103, Kind: KindInvalidInput, Message: "invalid private key length"}
	ErrInvalidPrivateKey       = Errno{Code: 20104, Kind: KindInvalidInput, Message: "private key out of range for secp256k1"}
	ErrInvalidDigestLength     = Errno{Code: 20105, Kind: KindInvalidInput, Message: "digest must be 32 bytes"}
	ErrInvalidAddress          = Errno{Code: 20106, Kind: KindInvalidInput, Message: "invalid address"}
	ErrInvalidTypedData        = Errno{Code: 20107, Kind: KindInvalidInput, Message: "invalid typed data"}
	ErrInvalidTransaction      = Errno{Code: 20108, Kind: KindInvalidInput, Message: "invalid transaction"}
	ErrInvalidDerivationPath   = Errno{Code: 20109, Kind: KindInvalidInput, Message: "invalid derivation path"}
	ErrInvalidAmount           = Errno{Code: 20110, Kind: KindInvalidInput, Message: "invalid amount"}
	ErrEmptyPassword           = Errno{Code: 20111, Kind: KindInvalidInput, Message: "password must not be empty"}
	ErrNotHDWallet             = Errno{Code: 20112, Kind: KindInvalidInput, Message: "wallet has no mnemonic"}
)

// Cryptographic failures (30000+)
var (
	ErrKeyDerivation    = Errno{Code: 30101, Kind: KindCrypto, Message: "key derivation failed"}
	ErrSignatureFormat  = Errno{Code: 30102, Kind: KindCrypto, Message: "unexpected signature format"}
	ErrChecksumMismatch = Errno{Code: 30103, Kind: KindCrypto, Message: "address checksum mismatch"}
)

// Storage failures (40000+)
var (
	ErrWalletNotFound    = Errno{Code: 40101, Kind: KindStorage, Message: "wallet not found"}
	ErrPasswordIncorrect = Errno{Code: 40102, Kind: KindStorage, Message: "Password incorrect"}
	ErrCorruptStore      = Errno{Code: 40103, Kind: KindStorage, Message: "secure store is corrupt"}
	ErrStoreUnavailable  = Errno{Code: 40104, Kind: KindStorage, Message: "secure store unavailable"}
)

// Authorization failures (50000+)
var (
	ErrWalletLocked      = Errno{Code: 50101, Kind: KindAuthorization, Message: "wallet locked"}
	ErrBiometricDeclined = Errno{Code: 50102, Kind: KindAuthorization, Message: "biometric authentication declined"}
	ErrNoWallet          = Errno{Code: 50103, Kind: KindAuthorization, Message: "no wallet"}
	ErrWalletExists      = Errno{Code: 50104, Kind: KindAuthorization, Message: "wallet already exists"}
)

// Network failures (60000+)
var (
	ErrNetworkTimeout    = Errno{Code: 60101, Kind: KindNetwork, Message: "network timeout"}
	ErrHTTPStatus        = Errno{Code: 60102, Kind: KindNetwork, Message: "unexpected http status"}
	ErrMalformedResponse = Errno{Code: 60103, Kind: KindNetwork, Message: "malformed rpc response"}
	ErrRPC               = Errno{Code: 60104, Kind: KindNetwork, Message: "rpc error"}
	ErrNetwork           = Errno{Code: 60105, Kind: KindNetwork, Message: "network failure"}
)
