package mongostore

import (
	"context"

	"lms-admin/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// OTPStore
// ============================================================================

func (s *Store) CreateOTP(ctx context.Context, otp *model.OTP) error {
	return insertOne(ctx, s.col(ColOTPs), otp)
}

// GetLatestOTPByUser 按 created_at 倒序取该用户最新一条验证码
//
// 签发侧先删后插并发下可能短暂留下孤儿记录，
// 验证侧只看最新一条，孤儿记录永远不会被匹配，到期自然清除。
func (s *Store) GetLatestOTPByUser(ctx context.Context, userID string) (*model.OTP, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findOne[model.OTP](ctx, s.col(ColOTPs), bson.D{{Key: "user_id", Value: userID}}, opts)
}

func (s *Store) DeleteOTP(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColOTPs), id)
}

// DeleteOTPsByUser 删除该用户全部验证码（重新签发前调用，保证单一有效码）
func (s *Store) DeleteOTPsByUser(ctx context.Context, userID string) error {
	_, err := s.col(ColOTPs).DeleteMany(ctx, bson.D{{Key: "user_id", Value: userID}})
	return wrapError(err)
}
