package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// KarixConfig Karix 短信网关配置
type KarixConfig struct {
	URL           string `yaml:"url"`
	APIKey        string `yaml:"-"` // 只从 SMS_API_KEY 环境变量读取
	SenderID      string `yaml:"sender_id"`
	TextTemplate  string `yaml:"text_template"` // 含 {{OTP}} 占位符
	DLTEntityID   string `yaml:"dlt_entity_id"`
	DLTTemplateID string `yaml:"dlt_template_id"`
}

// KarixGateway Karix 风格 HTTP 短信网关
type KarixGateway struct {
	cfg    KarixConfig
	client *http.Client
}

// NewKarixGateway 创建短信网关实例
//
// 下发调用带固定 15 秒超时，超时/网络错误按投递失败上抛。
func NewKarixGateway(cfg KarixConfig) *KarixGateway {
	return &KarixGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// karixMessage 单条短信
type karixMessage struct {
	Dest          []string `json:"dest"`
	Text          string   `json:"text"`
	Send          string   `json:"send"`
	Type          string   `json:"type"`
	DLTEntityID   string   `json:"dlt_entity_id"`
	DLTTemplateID string   `json:"dlt_template_id"`
	CustRef       string   `json:"cust_ref"`
}

// karixPayload 请求体
type karixPayload struct {
	Ver      string         `json:"ver"`
	Key      string         `json:"key"`
	Encrypt  string         `json:"encrpt"`
	Messages []karixMessage `json:"messages"`
}

// SendOTP 下发验证码短信
//
// 国家码只在此处拼接：存储层的 10 位号码加 91 前缀后发往网关。
func (g *KarixGateway) SendOTP(ctx context.Context, phone, code string) error {
	clean, err := NormalizePhone(phone)
	if err != nil {
		return fmt.Errorf("delivery: %w", err)
	}

	payload := karixPayload{
		Ver:     "1.0",
		Key:     g.cfg.APIKey,
		Encrypt: "0",
		Messages: []karixMessage{{
			Dest:          []string{"91" + clean},
			Text:          strings.ReplaceAll(g.cfg.TextTemplate, "{{OTP}}", code),
			Send:          g.cfg.SenderID,
			Type:          "PM",
			DLTEntityID:   g.cfg.DLTEntityID,
			DLTTemplateID: g.cfg.DLTTemplateID,
			CustRef:       strconv.FormatInt(time.Now().UnixMilli(), 10),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("delivery: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("delivery: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivery: sms gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("delivery: sms gateway status %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

var _ Gateway = (*KarixGateway)(nil)
