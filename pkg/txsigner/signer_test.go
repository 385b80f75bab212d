package txsigner

import (
	"math/big"
	"testing"

	"wallet-signer/pkg/eip712"
	"wallet-signer/pkg/errno"
	"wallet-signer/pkg/keymaterial"
	"wallet-signer/pkg/txcodec"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func newHDSigner(t *testing.T) (*Signer, keymaterial.KeyMaterial) {
	t.Helper()
	key, err := keymaterial.NewHD(testMnemonic, "", "", keymaterial.MethodMnemonic)
	require.NoError(t, err)
	t.Cleanup(key.Destroy)
	return New(key), key
}

func TestSignLegacyRecoverable(t *testing.T) {
	signer, key := newHDSigner(t)
	to := common.HexToAddress("0x3535353535353535353535353535353535353535")
	oneEther := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	tx := &txcodec.LegacyTransaction{
		Nonce: 0, GasPrice: big.NewInt(20_000_000_000), GasLimit: 21000,
		To: &to, Value: oneEther, ChainID: big.NewInt(507),
	}
	signed, err := signer.SignLegacy(tx)
	require.NoError(t, err)

	v := signed.V.Int64()
	assert.True(t, v == 507*2+35 || v == 507*2+36, "v = %d", v)

	decoded, err := txcodec.DecodeSigned(signed.Raw)
	require.NoError(t, err)
	sender, err := types.Sender(types.NewEIP155Signer(big.NewInt(507)), decoded)
	require.NoError(t, err)
	assert.Equal(t, key.Address(), sender)
	assert.Equal(t, decoded.Hash(), signed.Hash)
}

func TestSignEIP1559Recoverable(t *testing.T) {
	signer, key := newHDSigner(t)
	to := common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

	tx := &txcodec.DynamicFeeTransaction{
		ChainID: big.NewInt(1), Nonce: 3, MaxPriorityFeePerGas: big.NewInt(1_000_000_000),
		MaxFeePerGas: big.NewInt(30_000_000_000), GasLimit: 21000, To: &to, Value: big.NewInt(1),
	}
	signed, err := signer.SignEIP1559(tx)
	require.NoError(t, err)
	assert.Equal(t, byte(0x02), signed.Raw[0])
	assert.LessOrEqual(t, signed.V.Int64(), int64(1))

	decoded, err := txcodec.DecodeSigned(signed.Raw)
	require.NoError(t, err)
	sender, err := types.Sender(types.NewLondonSigner(big.NewInt(1)), decoded)
	require.NoError(t, err)
	assert.Equal(t, key.Address(), sender)
}

func TestSignTypedDataAndPermit(t *testing.T) {
	signer, key := newHDSigner(t)
	domain := eip712.Domain{Name: "USD Coin", Version: "2", ChainID: big.NewInt(1),
		VerifyingContract: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"}
	permit := eip712.Permit{
		Owner: key.Address(), Spender: common.HexToAddress("0x01"),
		Value: big.NewInt(10), Nonce: big.NewInt(0), Deadline: big.NewInt(1_900_000_000),
	}

	sig, err := signer.SignPermit(domain, permit)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.LessOrEqual(t, sig[64], byte(1))

	hash, err := eip712.NewPermit(domain, permit).SigningHash()
	require.NoError(t, err)
	assert.True(t, keymaterial.Verify(key.Address(), hash.Bytes(), sig))

	_, err = signer.SignTypedData(&eip712.TypedData{PrimaryType: "Missing"})
	assert.ErrorIs(t, err, errno.ErrInvalidTypedData)
}

func TestSignPersonalMessage(t *testing.T) {
	signer, key := newHDSigner(t)
	msg := []byte("hello")

	sig, err := signer.SignPersonalMessage(msg)
	require.NoError(t, err)

	pub, err := crypto.SigToPub(accounts.TextHash(msg), sig)
	require.NoError(t, err)
	assert.Equal(t, key.Address(), crypto.PubkeyToAddress(*pub))
}

type shortSigner struct{}

func (shortSigner) SignDigest([]byte) ([]byte, error) { return make([]byte, 64), nil }

type offsetSigner struct{ key keymaterial.KeyMaterial }

// 返回 27/28 形式的 v
func (o offsetSigner) SignDigest(d []byte) ([]byte, error) {
	sig, err := o.key.SignDigest(d)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

func TestSignatureContract(t *testing.T) {
	_, err := New(shortSigner{}).SignPersonalMessage([]byte("x"))
	assert.ErrorIs(t, err, errno.ErrSignatureFormat)

	_, key := newHDSigner(t)
	sig, err := New(offsetSigner{key: key}).SignPersonalMessage([]byte("x"))
	require.NoError(t, err)
	assert.LessOrEqual(t, sig[64], byte(1), "恢复 id 应被再次规范化")
}

func TestLockedKeyFails(t *testing.T) {
	signer, key := newHDSigner(t)
	key.Destroy()
	_, err := signer.SignPersonalMessage([]byte("x"))
	assert.ErrorIs(t, err, errno.ErrWalletLocked)
}
