// Package delivery 短信下发网关
//
// 业务层只依赖 Gateway 接口；具体实现为 Karix 风格的 HTTP 短信网关。
// 手机号在存储与比较层始终是裸 10 位数字，国家码（91）只在下发边界拼接。
package delivery

import (
	"context"
	"fmt"
	"strings"
)

// Gateway 验证码下发接口
type Gateway interface {
	// SendOTP 向手机号下发验证码短信
	SendOTP(ctx context.Context, phone, code string) error
}

// NormalizePhone 剥离国家码前缀与非数字字符，返回裸 10 位号码
//
// 入站数据可能携带 "+91" / "91" 前缀；存储层只保留 10 位。
// 只有长度为 12 且以 91 开头时才剥离国家码，避免误伤 9 开头的本地号码。
func NormalizePhone(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	phone := digits.String()
	if len(phone) == 12 && strings.HasPrefix(phone, "91") {
		phone = phone[2:]
	}
	if len(phone) != 10 {
		return "", fmt.Errorf("invalid phone number: %q", raw)
	}
	return phone, nil
}
