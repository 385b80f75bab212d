package safe_random

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

func TestGenerateRandomBytes(t *testing.T) {
	n := 32
	b, err := GenerateRandomBytes(n)
	if err != nil {
		t.Fatalf("GenerateRandomBytes 失败: %v", err)
	}
	if len(b) != n {
		t.Errorf("GenerateRandomBytes 返回了 %d 字节, 期望 %d", len(b), n)
	}

	// 简单的随机性检查（极不可能全为零）
	if bytes.Equal(b, make([]byte, n)) {
		t.Error("GenerateRandomBytes 返回了全零数据，可能未正确生成随机数")
	}

	if _, err := GenerateRandomBytes(0); err == nil {
		t.Error("长度为 0 时应返回错误")
	}
}

func TestGenerateRandomHexString(t *testing.T) {
	n := 16
	s, err := GenerateRandomHexString(n)
	if err != nil {
		t.Fatalf("GenerateRandomHexString 失败: %v", err)
	}

	decoded, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("解码 Hex 字符串失败: %v", err)
	}

	if len(decoded) != n {
		t.Errorf("GenerateRandomHexString 底层字节长度 = %d, 期望 %d", len(decoded), n)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestReaderFailure(t *testing.T) {
	orig := Reader
	Reader = failingReader{}
	defer func() { Reader = orig }()

	if _, err := Salt(32); err == nil {
		t.Fatal("Reader 失败时 Salt 应返回错误")
	}
}

func TestDeterministicReader(t *testing.T) {
	orig := Reader
	Reader = bytes.NewReader(bytes.Repeat([]byte{0xab}, 12))
	defer func() { Reader = orig }()

	iv, err := Nonce(12)
	if err != nil {
		t.Fatalf("Nonce 失败: %v", err)
	}
	if !bytes.Equal(iv, bytes.Repeat([]byte{0xab}, 12)) {
		t.Errorf("Nonce 应来自替换后的 Reader, 得到 %x", iv)
	}
}
