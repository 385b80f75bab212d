package request

type CreateWalletRequest struct {
	Strength      int    `json:"strength" binding:"omitempty,oneof=128 160 192 224 256"`
	Passphrase    string `json:"passphrase"`
	Password      string `json:"password" binding:"required"`
	SecurityLevel string `json:"security_level" binding:"omitempty,oneof=standard biometric biometric_only"`
	Overwrite     bool   `json:"overwrite"`
}

type ImportMnemonicRequest struct {
	Mnemonic      string `json:"mnemonic" binding:"required"`
	Passphrase    string `json:"passphrase"`
	Password      string `json:"password" binding:"required"`
	SecurityLevel string `json:"security_level" binding:"omitempty,oneof=standard biometric biometric_only"`
	Overwrite     bool   `json:"overwrite"`
}

type ImportPrivateKeyRequest struct {
	PrivateKey    string `json:"private_key" binding:"required,hexadecimal"`
	Password      string `json:"password" binding:"required"`
	SecurityLevel string `json:"security_level" binding:"omitempty,oneof=standard biometric biometric_only"`
	Overwrite     bool   `json:"overwrite"`
}

type UnlockRequest struct {
	Password string `json:"password" binding:"required"`
}
