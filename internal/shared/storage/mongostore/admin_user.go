package mongostore

import (
	"context"

	"lms-admin/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// AdminUserStore
// ============================================================================

func (s *Store) CreateAdminUser(ctx context.Context, admin *model.AdminUser) error {
	return insertOne(ctx, s.col(ColAdminUsers), admin)
}

func (s *Store) GetAdminUserByID(ctx context.Context, id string) (*model.AdminUser, error) {
	return findOne[model.AdminUser](ctx, s.col(ColAdminUsers), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetAdminUserByEmail(ctx context.Context, email string) (*model.AdminUser, error) {
	return findOne[model.AdminUser](ctx, s.col(ColAdminUsers), bson.D{{Key: "email", Value: email}})
}

func (s *Store) UpdateAdminUser(ctx context.Context, admin *model.AdminUser) error {
	return replaceByID(ctx, s.col(ColAdminUsers), admin.ID, admin)
}

func (s *Store) DeleteAdminUser(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColAdminUsers), id)
}

func (s *Store) ListAdminUsers(ctx context.Context, userType model.AdminType, status model.AdminStatus) ([]*model.AdminUser, error) {
	filter := bson.D{}
	if userType != "" {
		filter = append(filter, bson.E{Key: "user_type", Value: userType})
	}
	if status != "" {
		filter = append(filter, bson.E{Key: "status", Value: status})
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.AdminUser](ctx, s.col(ColAdminUsers), filter, opts)
}
