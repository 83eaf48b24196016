package mongostore

import (
	"context"

	"lms-admin/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// RoleStore
// ============================================================================

func (s *Store) CreateRole(ctx context.Context, role *model.Role) error {
	return insertOne(ctx, s.col(ColRoles), role)
}

func (s *Store) GetRoleByID(ctx context.Context, id string) (*model.Role, error) {
	return findOne[model.Role](ctx, s.col(ColRoles), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetRoleByName(ctx context.Context, name string) (*model.Role, error) {
	return findOne[model.Role](ctx, s.col(ColRoles), bson.D{{Key: "name", Value: name}})
}

func (s *Store) UpdateRole(ctx context.Context, role *model.Role) error {
	return replaceByID(ctx, s.col(ColRoles), role.ID, role)
}

func (s *Store) DeleteRole(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColRoles), id)
}

func (s *Store) ListRoles(ctx context.Context) ([]*model.Role, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findMany[model.Role](ctx, s.col(ColRoles), bson.D{}, opts)
}
