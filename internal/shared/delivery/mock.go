package delivery

import (
	"context"
	"errors"
	"sync"
)

// ErrMockDelivery MockGateway 注入的投递失败错误
var ErrMockDelivery = errors.New("delivery: mock send failure")

// SentMessage MockGateway 记录的一条下发
type SentMessage struct {
	Phone string
	Code  string
}

// MockGateway 记录型短信网关（测试用）
type MockGateway struct {
	mu   sync.Mutex
	sent []SentMessage

	// Fail 为 true 时 SendOTP 返回 ErrMockDelivery
	Fail bool
}

// NewMockGateway 创建 MockGateway 实例
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (g *MockGateway) SendOTP(_ context.Context, phone, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Fail {
		return ErrMockDelivery
	}
	g.sent = append(g.sent, SentMessage{Phone: phone, Code: code})
	return nil
}

// Sent 返回已记录的全部下发
func (g *MockGateway) Sent() []SentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]SentMessage, len(g.sent))
	copy(out, g.sent)
	return out
}

// LastCode 最近一次下发的验证码，未下发过返回空串
func (g *MockGateway) LastCode() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.sent) == 0 {
		return ""
	}
	return g.sent[len(g.sent)-1].Code
}

var _ Gateway = (*MockGateway)(nil)
