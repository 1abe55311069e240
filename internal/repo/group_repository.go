package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crewline/internal/apperr"
	"crewline/internal/db"
	"crewline/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var ErrInvalidGroupID = errors.New("invalid group ID: cannot be empty")

type GroupRepository interface {
	Create(ctx context.Context, group model.Group) (*model.Group, error)
	GetByID(ctx context.Context, groupID string) (*model.Group, error)
	ListByMember(ctx context.Context, userID string) ([]model.Group, error)
	SharedGroupExists(ctx context.Context, userA, userB string) (bool, error)
	AddMembers(ctx context.Context, groupID string, members []model.GroupMember) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	SetSettings(ctx context.Context, groupID string, fields bson.M) error
	SetChatID(ctx context.Context, groupID string, chatID primitive.ObjectID) error
	Deactivate(ctx context.Context, groupID string) error
	FindWithoutChat(ctx context.Context) ([]model.Group, error)
}

type groupRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.Group]
	logger    *zap.Logger
}

func NewGroupRepository(con *mongo.Database, repo *db.Repository[model.Group], logger *zap.Logger) GroupRepository {
	return &groupRepository{
		con:       con,
		mongoRepo: repo,
		logger:    logger,
	}
}

func (r *groupRepository) Create(ctx context.Context, group model.Group) (*model.Group, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	id, err := r.mongoRepo.Create(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	group.ID = id

	r.logger.Info("group created",
		zap.String("group_id", id.Hex()),
		zap.String("created_by", group.CreatedBy),
		zap.Int("members", len(group.Members)),
	)
	return &group, nil
}

func (r *groupRepository) GetByID(ctx context.Context, groupID string) (*model.Group, error) {
	if groupID == "" {
		return nil, ErrInvalidGroupID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	group, err := r.mongoRepo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("group not found")
		}
		return nil, fmt.Errorf("fetch group: %w", err)
	}
	return group, nil
}

func (r *groupRepository) ListByMember(ctx context.Context, userID string) ([]model.Group, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		ElemMatch("members", bson.M{"user_id": userID}).
		Eq("is_active", true).
		Build()

	groups, err := r.mongoRepo.FindAll(ctx, filter, bson.D{{Key: "last_activity", Value: -1}})
	if err != nil {
		return nil, fmt.Errorf("list groups by member: %w", err)
	}
	return groups, nil
}

// SharedGroupExists reports whether two users share at least one active group.
func (r *groupRepository) SharedGroupExists(ctx context.Context, userA, userB string) (bool, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := bson.M{
		"is_active": true,
		"$and": []bson.M{
			{"members": bson.M{"$elemMatch": bson.M{"user_id": userA}}},
			{"members": bson.M{"$elemMatch": bson.M{"user_id": userB}}},
		},
	}

	exists, err := r.mongoRepo.Exists(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("shared group check: %w", err)
	}
	return exists, nil
}

// AddMembers appends member entries. The caller filters out users already in
// the group; the $ne guard here keeps a concurrent duplicate from slipping in.
func (r *groupRepository) AddMembers(ctx context.Context, groupID string, members []model.GroupMember) error {
	if groupID == "" {
		return ErrInvalidGroupID
	}
	if len(members) == 0 {
		return nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	for _, m := range members {
		_, err := r.mongoRepo.UpdateRaw(ctx,
			bson.M{
				"_id":             mustObjectID(groupID),
				"members.user_id": bson.M{"$ne": m.UserID},
			},
			bson.M{
				"$push": bson.M{"members": m},
				"$set":  bson.M{"updated_at": now, "last_activity": now},
			},
		)
		if err != nil {
			return fmt.Errorf("add group member %s: %w", m.UserID, err)
		}
	}
	return nil
}

func (r *groupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	if groupID == "" {
		return ErrInvalidGroupID
	}
	if userID == "" {
		return ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := r.mongoRepo.UpdateRaw(ctx,
		db.NewFilter().ObjectID("_id", groupID).Build(),
		bson.M{
			"$pull": bson.M{"members": bson.M{"user_id": userID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("remove group member: %w", err)
	}
	return nil
}

func (r *groupRepository) SetSettings(ctx context.Context, groupID string, fields bson.M) error {
	if groupID == "" {
		return ErrInvalidGroupID
	}
	if len(fields) == 0 {
		return nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	fields["updated_at"] = time.Now().UTC()
	_, err := r.mongoRepo.SetFieldsByID(ctx, groupID, fields)
	if err != nil {
		return fmt.Errorf("update group settings: %w", err)
	}
	return nil
}

func (r *groupRepository) SetChatID(ctx context.Context, groupID string, chatID primitive.ObjectID) error {
	if groupID == "" {
		return ErrInvalidGroupID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := r.mongoRepo.SetFieldsByID(ctx, groupID, bson.M{
		"chat_id":    chatID,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("backlink group chat: %w", err)
	}
	return nil
}

func (r *groupRepository) Deactivate(ctx context.Context, groupID string) error {
	if groupID == "" {
		return ErrInvalidGroupID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := r.mongoRepo.SetFieldsByID(ctx, groupID, bson.M{
		"is_active":  false,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("deactivate group: %w", err)
	}
	return nil
}

// FindWithoutChat returns active groups whose backing chat was never created,
// the repairable state left behind when chat creation failed after the group
// insert succeeded.
func (r *groupRepository) FindWithoutChat(ctx context.Context) ([]model.Group, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("is_active", true).
		Exists("chat_id", false).
		Build()

	groups, err := r.mongoRepo.FindAll(ctx, filter, nil)
	if err != nil {
		return nil, fmt.Errorf("find groups without chat: %w", err)
	}
	return groups, nil
}

func mustObjectID(hex string) primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(hex)
	return id
}
