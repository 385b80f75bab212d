package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

var stdin = bufio.NewReader(os.Stdin)

// readSecret 终端下不回显；非终端 (管道输入) 时读取一行
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		b, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("读取输入失败: %w", err)
		}
		return string(b), nil
	}
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("读取输入失败: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func readPassword() (string, error) {
	return readSecret("请输入钱包密码: ")
}

// readNewPassword 新密码需要输入两次
func readNewPassword() (string, error) {
	pw, err := readSecret("设置钱包密码: ")
	if err != nil {
		return "", err
	}
	if pw == "" {
		return "", errors.New("密码不能为空")
	}
	confirm, err := readSecret("再次输入密码: ")
	if err != nil {
		return "", err
	}
	if pw != confirm {
		return "", errors.New("两次输入的密码不一致")
	}
	return pw, nil
}

func confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	line, _ := stdin.ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// terminalAuthenticator 命令行没有生物识别能力: 允许回退时用终端确认代替，biometric_only 条目直接拒绝
type terminalAuthenticator struct{}

func (terminalAuthenticator) Authenticate(ctx context.Context, reason string, allowFallback bool) error {
	if !allowFallback {
		return errors.New("当前平台不支持生物识别")
	}
	if !confirm(reason) {
		return errors.New("用户拒绝")
	}
	return nil
}
