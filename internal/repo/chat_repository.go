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

var (
	ErrInvalidChatID = errors.New("invalid chat ID: cannot be empty")
	ErrInvalidUserID = errors.New("invalid user ID: cannot be empty")
)

const (
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 30 * time.Second
)

type ChatRepository interface {
	EnsureIndexes(ctx context.Context) error
	FindOrCreateDirect(ctx context.Context, userA, userB string) (*model.Chat, bool, error)
	CreateGroupChat(ctx context.Context, chat model.Chat) (*model.Chat, error)
	GetByID(ctx context.Context, chatID string) (*model.Chat, error)
	GetByGroupID(ctx context.Context, groupID primitive.ObjectID) (*model.Chat, error)
	GetUserChats(ctx context.Context, userID string) ([]model.Chat, error)
	IncrementUnread(ctx context.Context, chatID string, userIDs []string) error
	ResetUnread(ctx context.Context, chatID, userID string) error
	SetLastMessage(ctx context.Context, chatID string, lm model.LastMessage) error
	SetParticipants(ctx context.Context, chatID string, participants []string) error
	Deactivate(ctx context.Context, chatID string) error
	Purge(ctx context.Context, chatID string) error
}

type chatRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.Chat]
	logger    *zap.Logger
}

func NewChatRepository(con *mongo.Database, repo *db.Repository[model.Chat], logger *zap.Logger) ChatRepository {
	return &chatRepository{
		con:       con,
		mongoRepo: repo,
		logger:    logger,
	}
}

// EnsureIndexes sets up the unique direct-chat index. The partial filter keeps
// the uniqueness constraint scoped to direct chats so group chats (which carry
// no direct_key) never collide.
func (r *chatRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	return r.mongoRepo.EnsureIndexes(ctx, []db.IndexSpec{
		{
			Keys:    bson.D{{Key: "direct_key", Value: 1}},
			Unique:  true,
			Partial: bson.M{"chat_type": model.ChatTypeDirect, "is_active": true},
		},
		{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "last_activity", Value: -1}}},
		{Keys: bson.D{{Key: "group_id", Value: 1}}, Sparse: true},
	})
}

// FindOrCreateDirect returns the unique active direct chat for the unordered
// pair, creating it when absent. Concurrent callers racing on the insert hit
// the unique index; the loser re-fetches and returns the winner's chat.
func (r *chatRepository) FindOrCreateDirect(ctx context.Context, userA, userB string) (*model.Chat, bool, error) {
	if userA == "" || userB == "" {
		return nil, false, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	key := model.DirectKey(userA, userB)
	filter := db.NewFilter().
		Eq("chat_type", model.ChatTypeDirect).
		Eq("direct_key", key).
		Eq("is_active", true).
		Build()

	existing, err := r.mongoRepo.FindOne(ctx, filter)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, fmt.Errorf("find direct chat: %w", err)
	}

	chat := model.NewDirectChat(userA, userB)
	id, err := r.mongoRepo.Create(ctx, chat)
	if err != nil {
		if db.IsDuplicateKey(err) {
			r.logger.Debug("direct chat insert lost race, refetching",
				zap.String("direct_key", key),
			)
			winner, ferr := r.mongoRepo.FindOne(ctx, filter)
			if ferr != nil {
				return nil, false, apperr.Wrap(apperr.KindConflict, "direct chat race refetch failed", ferr)
			}
			return winner, false, nil
		}
		return nil, false, fmt.Errorf("create direct chat: %w", err)
	}

	chat.ID = id
	r.logger.Info("direct chat created",
		zap.String("chat_id", id.Hex()),
		zap.String("direct_key", key),
	)
	return &chat, true, nil
}

func (r *chatRepository) CreateGroupChat(ctx context.Context, chat model.Chat) (*model.Chat, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	id, err := r.mongoRepo.Create(ctx, chat)
	if err != nil {
		return nil, fmt.Errorf("create group chat: %w", err)
	}
	chat.ID = id
	return &chat, nil
}

func (r *chatRepository) GetByID(ctx context.Context, chatID string) (*model.Chat, error) {
	if chatID == "" {
		return nil, ErrInvalidChatID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	chat, err := r.mongoRepo.FindByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("chat not found")
		}
		return nil, fmt.Errorf("fetch chat: %w", err)
	}
	return chat, nil
}

func (r *chatRepository) GetByGroupID(ctx context.Context, groupID primitive.ObjectID) (*model.Chat, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	chat, err := r.mongoRepo.FindOne(ctx, db.NewFilter().Eq("group_id", groupID).Build())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("backing chat not found")
		}
		return nil, fmt.Errorf("fetch backing chat: %w", err)
	}
	return chat, nil
}

// GetUserChats returns all active chats containing the user, most recent
// activity first.
func (r *chatRepository) GetUserChats(ctx context.Context, userID string) ([]model.Chat, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Contains("participants", userID).
		Eq("is_active", true).
		Build()

	chats, err := r.mongoRepo.FindAll(ctx, filter, bson.D{{Key: "last_activity", Value: -1}})
	if err != nil {
		return nil, fmt.Errorf("list user chats: %w", err)
	}
	return chats, nil
}

// IncrementUnread bumps the per-user counters and refreshes last_activity in
// one targeted update. Counters for different users live under distinct keys,
// so concurrent increments for different users never conflict.
func (r *chatRepository) IncrementUnread(ctx context.Context, chatID string, userIDs []string) error {
	if chatID == "" {
		return ErrInvalidChatID
	}
	if len(userIDs) == 0 {
		return nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	inc := bson.M{}
	for _, uid := range userIDs {
		inc["unread."+uid+".count"] = 1
	}

	_, err := r.mongoRepo.UpdateRaw(ctx,
		db.NewFilter().ObjectID("_id", chatID).Build(),
		bson.M{
			"$inc": inc,
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("increment unread: %w", err)
	}
	return nil
}

// ResetUnread zeroes the requester's counter and stamps last_read_at.
// Last-write-wins per (chat,user) is acceptable here.
func (r *chatRepository) ResetUnread(ctx context.Context, chatID, userID string) error {
	if chatID == "" {
		return ErrInvalidChatID
	}
	if userID == "" {
		return ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	_, err := r.mongoRepo.SetFieldsByID(ctx, chatID, bson.M{
		"unread." + userID + ".count":        int64(0),
		"unread." + userID + ".last_read_at": now,
	})
	if err != nil {
		return fmt.Errorf("reset unread: %w", err)
	}
	return nil
}

func (r *chatRepository) SetLastMessage(ctx context.Context, chatID string, lm model.LastMessage) error {
	if chatID == "" {
		return ErrInvalidChatID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := r.mongoRepo.SetFieldsByID(ctx, chatID, bson.M{
		"last_message":  lm,
		"last_activity": lm.SentAt,
		"updated_at":    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("set last message: %w", err)
	}
	return nil
}

// SetParticipants mirrors a group membership change onto the backing chat.
func (r *chatRepository) SetParticipants(ctx context.Context, chatID string, participants []string) error {
	if chatID == "" {
		return ErrInvalidChatID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := r.mongoRepo.SetFieldsByID(ctx, chatID, bson.M{
		"participants": participants,
		"updated_at":   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("set participants: %w", err)
	}
	return nil
}

func (r *chatRepository) Deactivate(ctx context.Context, chatID string) error {
	if chatID == "" {
		return ErrInvalidChatID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := r.mongoRepo.SetFieldsByID(ctx, chatID, bson.M{
		"is_active":  false,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("deactivate chat: %w", err)
	}
	return nil
}

// Purge hard-deletes the chat document. Message cascade is the caller's job;
// this repo owns only the chats collection.
func (r *chatRepository) Purge(ctx context.Context, chatID string) error {
	if chatID == "" {
		return ErrInvalidChatID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := r.mongoRepo.Delete(ctx, db.NewFilter().ObjectID("_id", chatID).Build())
	if err != nil {
		return fmt.Errorf("purge chat: %w", err)
	}
	r.logger.Info("chat purged", zap.String("chat_id", chatID))
	return nil
}

func ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
