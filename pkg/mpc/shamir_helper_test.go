package mpc

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestSplitRecover(t *testing.T) {
	secret, _ := hex.DecodeString("1ab42cc412b618bdea3a599e3c9bae199ebf030895b039e9db1e30dafb12b727")

	shares, err := Split(secret, 5, 3)
	if err != nil {
		t.Fatalf("Split 失败: %v", err)
	}
	if len(shares) != 5 {
		t.Fatalf("预期 5 个 share, 实际 %d", len(shares))
	}

	// 任意 3 个即可恢复
	for _, subset := range [][]string{shares[:3], shares[2:], {shares[0], shares[2], "0x" + shares[4]}} {
		got, err := Recover(subset)
		if err != nil {
			t.Fatalf("Recover 失败: %v", err)
		}
		if !bytes.Equal(got, secret) {
			t.Errorf("恢复的秘密不匹配: %x", got)
		}
	}

	// 2 个 share 不足以恢复
	got, err := Recover(shares[:2])
	if err == nil && bytes.Equal(got, secret) {
		t.Errorf("少于阈值的 share 不应恢复出原秘密")
	}
}

func TestSplitInvalid(t *testing.T) {
	if _, err := Split(nil, 3, 2); err == nil {
		t.Error("空秘密应失败")
	}
	if _, err := Split([]byte{1}, 2, 3); err == nil {
		t.Error("threshold > parts 应失败")
	}
	if _, err := Recover([]string{"zz"}); err == nil {
		t.Error("非法 hex 应失败")
	}
}
