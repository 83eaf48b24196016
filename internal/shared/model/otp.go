package model

import "time"

// OTPTTL 验证码有效期
const OTPTTL = 5 * time.Minute

// OTP 一次性短信验证码
//
// 生命周期：签发时创建；验证成功或检测到过期时立即删除（单次使用）；
// 从不原地更新。同一用户重新签发前会先删除旧记录，
// 验证侧始终按 created_at 倒序读取最新一条。
type OTP struct {
	ID        string    `json:"_id" bson:"_id"`
	UserID    string    `json:"userId" bson:"user_id"`
	Code      string    `json:"-" bson:"code"` // 6 位数字，不出现在任何响应中
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expires_at"`
}

// Expired 以 now 为基准判断是否超出有效期
func (o *OTP) Expired(now time.Time) bool {
	return now.Sub(o.CreatedAt) > OTPTTL
}
