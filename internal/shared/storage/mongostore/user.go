package mongostore

import (
	"context"
	"time"

	"fleet-admin/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return insertOne(ctx, s.col(ColUsers), user)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: model.NormalizeEmail(email)}})
}

func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.User](ctx, s.col(ColUsers), bson.D{}, opts)
}

func (s *Store) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()
	return replaceByID(ctx, s.col(ColUsers), user.ID, user)
}

func (s *Store) UpdateUserDigest(ctx context.Context, id, digest string) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "password_digest", Value: digest},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColUsers), id)
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	return countDocs(ctx, s.col(ColUsers), bson.D{})
}
