package wallet

// State 会话状态
// NoWallet -> Locked -> Unlocking -> Unlocked -> Locked
type State int

const (
	StateNoWallet State = iota
	StateLocked
	StateUnlocking
	StateUnlocked
)

// String 与 monitor.SessionStates 的取值一致
func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateUnlocking:
		return "unlocking"
	case StateUnlocked:
		return "unlocked"
	default:
		return "no_wallet"
	}
}

// 解锁结果，用于 wallet_unlock_attempts_total 的 result 标签
const (
	unlockSuccess       = "success"
	unlockWrongPassword = "wrong_password"
	unlockCancelled     = "cancelled"
	unlockError         = "error"
)

// 签名类型，用于 wallet_signatures_total 的 kind 标签
const (
	signKindHash      = "hash"
	signKindMessage   = "message"
	signKindLegacy    = "legacy"
	signKindEIP1559   = "eip1559"
	signKindTypedData = "typed_data"
)
