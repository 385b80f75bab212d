package eip712

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"wallet-signer/pkg/crypto_util"
	"wallet-signer/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
)

// DomainTypeName 域分隔符使用的结构体名
const DomainTypeName = "EIP712Domain"

// Field 结构体成员，Types 中的切片顺序即声明顺序
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Types 结构体名 -> 成员列表
type Types map[string][]Field

// Domain EIP-712 域，零值字段视为不存在
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract string
	Salt              []byte
}

// TypedData 待签名的结构化数据
type TypedData struct {
	Types       Types
	PrimaryType string
	Domain      Domain
	Message     map[string]any
}

// Fields 按 name, version, chainId, verifyingContract, salt 的顺序返回存在的域字段
func (d Domain) Fields() []Field {
	var fields []Field
	if d.Name != "" {
		fields = append(fields, Field{Name: "name", Type: "string"})
	}
	if d.Version != "" {
		fields = append(fields, Field{Name: "version", Type: "string"})
	}
	if d.ChainID != nil {
		fields = append(fields, Field{Name: "chainId", Type: "uint256"})
	}
	if d.VerifyingContract != "" {
		fields = append(fields, Field{Name: "verifyingContract", Type: "address"})
	}
	if len(d.Salt) > 0 {
		fields = append(fields, Field{Name: "salt", Type: "bytes32"})
	}
	return fields
}

func (d Domain) values() map[string]any {
	m := make(map[string]any, 5)
	if d.Name != "" {
		m["name"] = d.Name
	}
	if d.Version != "" {
		m["version"] = d.Version
	}
	if d.ChainID != nil {
		m["chainId"] = d.ChainID
	}
	if d.VerifyingContract != "" {
		m["verifyingContract"] = d.VerifyingContract
	}
	if len(d.Salt) > 0 {
		m["salt"] = d.Salt
	}
	return m
}

// DomainSeparator hashStruct(EIP712Domain, domain)
func DomainSeparator(d Domain) (common.Hash, error) {
	types := Types{DomainTypeName: d.Fields()}
	return HashStruct(types, DomainTypeName, d.values())
}

// SigningHash keccak256(0x19 0x01 || domainSeparator || hashStruct(primaryType, message))
func (td *TypedData) SigningHash() (common.Hash, error) {
	if _, ok := td.Types[td.PrimaryType]; !ok || td.PrimaryType == "" {
		return common.Hash{}, fmt.Errorf("%w: primary type %q not declared", errno.ErrInvalidTypedData, td.PrimaryType)
	}

	domainSep, err := DomainSeparator(td.Domain)
	if err != nil {
		return common.Hash{}, err
	}
	structHash, err := HashStruct(td.Types, td.PrimaryType, td.Message)
	if err != nil {
		return common.Hash{}, err
	}

	return common.BytesToHash(crypto_util.Keccak256([]byte{0x19, 0x01}, domainSep.Bytes(), structHash.Bytes())), nil
}

// baseType 去掉数组后缀: "Person[2][]" -> "Person"
func baseType(t string) string {
	if i := strings.IndexByte(t, '['); i >= 0 {
		return t[:i]
	}
	return t
}

// dependencies 收集 name 直接或间接引用的结构体类型 (含自身)
func dependencies(types Types, name string, found map[string]bool) error {
	if found[name] {
		return nil
	}
	fields, ok := types[name]
	if !ok {
		return fmt.Errorf("%w: undeclared type %q", errno.ErrInvalidTypedData, name)
	}
	found[name] = true
	for _, f := range fields {
		base := baseType(f.Type)
		if _, isStruct := types[base]; isStruct {
			if err := dependencies(types, base, found); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeSingleType(name string, fields []Field) string {
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('(')
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(f.Type)
		sb.WriteByte(' ')
		sb.WriteString(f.Name)
	}
	sb.WriteByte(')')
	return sb.String()
}

// TypeString encodeType: 主类型在前，其余引用类型按名称排序追加
func TypeString(types Types, name string) (string, error) {
	found := make(map[string]bool)
	if err := dependencies(types, name, found); err != nil {
		return "", err
	}
	delete(found, name)

	deps := make([]string, 0, len(found))
	for dep := range found {
		deps = append(deps, dep)
	}
	sort.Strings(deps)

	var sb strings.Builder
	sb.WriteString(encodeSingleType(name, types[name]))
	for _, dep := range deps {
		sb.WriteString(encodeSingleType(dep, types[dep]))
	}
	return sb.String(), nil
}

// TypeHash keccak256(TypeString)
func TypeHash(types Types, name string) (common.Hash, error) {
	s, err := TypeString(types, name)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(crypto_util.Keccak256([]byte(s))), nil
}
