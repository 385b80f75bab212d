package eip712

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"wallet-signer/pkg/address"
	"wallet-signer/pkg/crypto_util"
	"wallet-signer/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
	gmath "github.com/ethereum/go-ethereum/common/math"
)

// HashStruct keccak256(typeHash || encodeData(data))
func HashStruct(types Types, name string, data map[string]any) (common.Hash, error) {
	typeHash, err := TypeHash(types, name)
	if err != nil {
		return common.Hash{}, err
	}
	encoded, err := encodeData(types, name, data)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(crypto_util.Keccak256(typeHash.Bytes(), encoded)), nil
}

func encodeData(types Types, name string, data map[string]any) ([]byte, error) {
	fields := types[name]
	if data == nil {
		return nil, fmt.Errorf("%w: %s: missing struct value", errno.ErrInvalidTypedData, name)
	}
	if len(data) > len(fields) {
		return nil, fmt.Errorf("%w: %s: unexpected extra fields", errno.ErrInvalidTypedData, name)
	}

	out := make([]byte, 0, 32*len(fields))
	for _, f := range fields {
		value, ok := data[f.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s is missing", errno.ErrInvalidTypedData, name, f.Name)
		}
		word, err := encodeValue(types, f.Type, value)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, f.Name, err)
		}
		out = append(out, word...)
	}
	return out, nil
}

// encodeValue 返回一个 32 字节的编码字
func encodeValue(types Types, typ string, value any) ([]byte, error) {
	// 1. 数组: keccak256(元素编码拼接)
	if strings.HasSuffix(typ, "]") {
		open := strings.LastIndexByte(typ, '[')
		if open < 0 {
			return nil, fmt.Errorf("%w: malformed type %q", errno.ErrInvalidTypedData, typ)
		}
		elemType, sizeSpec := typ[:open], typ[open+1:len(typ)-1]

		items, err := toSlice(value)
		if err != nil {
			return nil, err
		}
		if sizeSpec != "" {
			n, err := strconv.Atoi(sizeSpec)
			if err != nil || n != len(items) {
				return nil, fmt.Errorf("%w: %s expects %s elements, got %d", errno.ErrInvalidTypedData, typ, sizeSpec, len(items))
			}
		}

		buf := make([]byte, 0, 32*len(items))
		for _, item := range items {
			word, err := encodeValue(types, elemType, item)
			if err != nil {
				return nil, err
			}
			buf = append(buf, word...)
		}
		return crypto_util.Keccak256(buf), nil
	}

	// 2. 嵌套结构体
	if _, ok := types[typ]; ok {
		m, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects an object, got %T", errno.ErrInvalidTypedData, typ, value)
		}
		h, err := HashStruct(types, typ, m)
		if err != nil {
			return nil, err
		}
		return h.Bytes(), nil
	}

	// 3. 原子类型
	switch {
	case typ == "string":
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: string expected, got %T", errno.ErrInvalidTypedData, value)
		}
		return crypto_util.Keccak256([]byte(s)), nil

	case typ == "bytes":
		b, err := toBytes(value)
		if err != nil {
			return nil, err
		}
		return crypto_util.Keccak256(b), nil

	case strings.HasPrefix(typ, "bytes"):
		n, err := strconv.Atoi(typ[len("bytes"):])
		if err != nil || n < 1 || n > 32 {
			return nil, fmt.Errorf("%w: unknown type %q", errno.ErrInvalidTypedData, typ)
		}
		b, err := toBytes(value)
		if err != nil {
			return nil, err
		}
		if len(b) != n {
			return nil, fmt.Errorf("%w: %s expects %d bytes, got %d", errno.ErrInvalidTypedData, typ, n, len(b))
		}
		word := make([]byte, 32)
		copy(word, b)
		return word, nil

	case typ == "address":
		addr, err := toAddress(value)
		if err != nil {
			return nil, err
		}
		return common.LeftPadBytes(addr.Bytes(), 32), nil

	case typ == "bool":
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: bool expected, got %T", errno.ErrInvalidTypedData, value)
		}
		word := make([]byte, 32)
		if b {
			word[31] = 1
		}
		return word, nil

	case strings.HasPrefix(typ, "uint"), strings.HasPrefix(typ, "int"):
		signed := strings.HasPrefix(typ, "int")
		bits, err := intBits(typ)
		if err != nil {
			return nil, err
		}
		v, err := toBigInt(value)
		if err != nil {
			return nil, err
		}
		if err := checkRange(v, bits, signed); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", errno.ErrInvalidTypedData, typ, err)
		}
		return gmath.U256Bytes(new(big.Int).Set(v)), nil
	}

	return nil, fmt.Errorf("%w: unknown type %q", errno.ErrInvalidTypedData, typ)
}

func intBits(typ string) (int, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(typ, "u"), "int")
	if digits == "" {
		return 256, nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 8 || n > 256 || n%8 != 0 {
		return 0, fmt.Errorf("%w: unknown type %q", errno.ErrInvalidTypedData, typ)
	}
	return n, nil
}

func checkRange(v *big.Int, bits int, signed bool) error {
	if !signed {
		if v.Sign() < 0 {
			return fmt.Errorf("negative value for unsigned type")
		}
		if v.BitLen() > bits {
			return fmt.Errorf("value exceeds %d bits", bits)
		}
		return nil
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	minV := new(big.Int).Neg(limit)
	if v.Cmp(minV) < 0 || v.Cmp(limit) >= 0 {
		return fmt.Errorf("value out of int%d range", bits)
	}
	return nil
}

func toSlice(value any) ([]any, error) {
	if items, ok := value.([]any); ok {
		return items, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: array expected, got %T", errno.ErrInvalidTypedData, value)
	}
	// []byte 不作为数组处理
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, fmt.Errorf("%w: array expected, got %T", errno.ErrInvalidTypedData, value)
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, nil
}

func toBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case common.Hash:
		return v.Bytes(), nil
	case string:
		s := strings.TrimPrefix(strings.TrimPrefix(v, "0x"), "0X")
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid hex bytes", errno.ErrInvalidTypedData)
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: bytes expected, got %T", errno.ErrInvalidTypedData, value)
}

func toAddress(value any) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		if v != nil {
			return *v, nil
		}
	case string:
		return address.Parse(v)
	case []byte:
		if len(v) == common.AddressLength {
			return common.BytesToAddress(v), nil
		}
	}
	return common.Address{}, fmt.Errorf("%w: %v", errno.ErrInvalidAddress, value)
}

// toBigInt 接受十进制/0x 十六进制字符串、*big.Int、内置整数、json.Number 和整数值的 float64
func toBigInt(value any) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		if v != nil {
			return v, nil
		}
	case string:
		return parseIntString(v)
	case json.Number:
		return parseIntString(v.String())
	case int:
		return big.NewInt(int64(v)), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) && math.Abs(v) < 1<<53 {
			return big.NewInt(int64(v)), nil
		}
	}
	return nil, fmt.Errorf("%w: integer expected, got %T(%v)", errno.ErrInvalidTypedData, value, value)
}

func parseIntString(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(s, "-")

	base := 10
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		base, body = 16, body[2:]
	}
	v, ok := new(big.Int).SetString(body, base)
	if !ok || body == "" {
		return nil, fmt.Errorf("%w: invalid integer %q", errno.ErrInvalidTypedData, s)
	}
	if neg {
		v.Neg(v)
	}
	return v, nil
}
