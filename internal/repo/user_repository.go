package repo

import (
	"context"
	"errors"
	"fmt"

	"crewline/internal/apperr"
	"crewline/internal/db"
	"crewline/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository reads the directory collection synced from the HR system.
type UserRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.User, error)
	ListByIDs(ctx context.Context, userIDs []string) ([]model.User, error)
	ListActive(ctx context.Context) ([]model.User, error)
}

type userRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.User]
}

func NewUserRepository(con *mongo.Database, repo *db.Repository[model.User]) UserRepository {
	return &userRepository{
		con:       con,
		mongoRepo: repo,
	}
}

func (r *userRepository) GetByUserID(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	user, err := r.mongoRepo.FindOne(ctx, db.NewFilter().Eq("user_id", userID).Eq("is_active", true).Build())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	return user, nil
}

func (r *userRepository) ListByIDs(ctx context.Context, userIDs []string) ([]model.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	users, err := r.mongoRepo.FindAll(ctx,
		db.NewFilter().In("user_id", userIDs).Eq("is_active", true).Build(),
		bson.D{{Key: "username", Value: 1}},
	)
	if err != nil {
		return nil, fmt.Errorf("list users by ids: %w", err)
	}
	return users, nil
}

func (r *userRepository) ListActive(ctx context.Context) ([]model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	users, err := r.mongoRepo.FindAll(ctx,
		db.NewFilter().Eq("is_active", true).Build(),
		bson.D{{Key: "username", Value: 1}},
	)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	return users, nil
}
