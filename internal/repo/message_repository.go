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
	ErrInvalidMessage   = errors.New("invalid message: message cannot be nil")
	ErrInvalidMessageID = errors.New("invalid message ID: cannot be empty")
)

const (
	maxRetries     = 3
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 2 * time.Second
)

type MessageRepository interface {
	Insert(ctx context.Context, msg *model.Message) (*model.Message, error)
	GetByID(ctx context.Context, messageID string) (*model.Message, error)
	FindPage(ctx context.Context, chatID string, page, pageSize int64) (*db.PaginatedResult[model.Message], error)
	MarkRead(ctx context.Context, messageID, userID string) error
	MarkDelivered(ctx context.Context, messageID, userID string) error
	MarkPageRead(ctx context.Context, chatID, userID string, messageIDs []primitive.ObjectID) error
	SoftDelete(ctx context.Context, messageID, userID string) error
	DeleteByChat(ctx context.Context, chatID string) (int64, error)
}

type messageRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
}

func NewMessageRepository(con *mongo.Database, repo *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		con:       con,
		mongoRepo: repo,
		logger:    logger,
	}
}

// Insert persists the message, retrying transient mongo failures with
// exponential backoff. The returned message carries the assigned id; nothing
// is broadcast until this returns.
func (m *messageRepository) Insert(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if msg == nil {
		return nil, ErrInvalidMessage
	}
	if msg.ChatID.IsZero() {
		return nil, ErrInvalidChatID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := m.waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
		}

		id, err := m.mongoRepo.Create(ctx, *msg)
		if err == nil {
			stored := *msg
			stored.ID = id
			m.logger.Info("message inserted",
				zap.String("message_id", id.Hex()),
				zap.String("chat_id", msg.ChatID.Hex()),
				zap.Int("attempt", attempt+1),
			)
			return &stored, nil
		}

		lastErr = err
		if !m.isRetryableError(err) {
			break
		}

		m.logger.Warn("message insert failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxRetries),
		)
	}

	m.logger.Error("message insert exhausted retries",
		zap.Error(lastErr),
		zap.String("chat_id", msg.ChatID.Hex()),
	)
	return nil, fmt.Errorf("insert message: %w", lastErr)
}

func (m *messageRepository) GetByID(ctx context.Context, messageID string) (*model.Message, error) {
	if messageID == "" {
		return nil, ErrInvalidMessageID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	msg, err := m.mongoRepo.FindByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, fmt.Errorf("fetch message: %w", err)
	}
	return msg, nil
}

// FindPage fetches one page of non-deleted chat messages, newest first. The
// service reverses the page so callers receive chronological order.
func (m *messageRepository) FindPage(ctx context.Context, chatID string, page, pageSize int64) (*db.PaginatedResult[model.Message], error) {
	if chatID == "" {
		return nil, ErrInvalidChatID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		ObjectID("chat_id", chatID).
		Eq("is_deleted", false).
		Build()

	result, err := m.mongoRepo.FindWithPagination(ctx, filter, db.PaginationParams{
		Page:     page,
		PageSize: pageSize,
		SortBy:   "created_at",
		SortDesc: true,
	})
	if err != nil {
		return nil, fmt.Errorf("page messages: %w", err)
	}

	m.logger.Debug("messages paged",
		zap.String("chat_id", chatID),
		zap.Int("count", len(result.Data)),
		zap.Int64("page", result.Page),
		zap.Int64("total", result.Total),
	)
	return result, nil
}

// MarkRead appends a read receipt exactly once. The filter excludes messages
// already read by the user, so a second call matches nothing and the receipt
// set stays idempotent.
func (m *messageRepository) MarkRead(ctx context.Context, messageID, userID string) error {
	return m.appendReceipt(ctx, messageID, userID, "read_by")
}

// MarkDelivered appends a delivery receipt with the same idempotency rule.
func (m *messageRepository) MarkDelivered(ctx context.Context, messageID, userID string) error {
	return m.appendReceipt(ctx, messageID, userID, "delivered_to")
}

func (m *messageRepository) appendReceipt(ctx context.Context, messageID, userID, field string) error {
	if messageID == "" {
		return ErrInvalidMessageID
	}
	if userID == "" {
		return ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return apperr.Validation("malformed message id")
	}

	filter := db.NewFilter().
		Eq("_id", oid).
		NotElemMatch(field, bson.M{"user_id": userID}).
		Build()

	_, err = m.mongoRepo.UpdateRaw(ctx, filter,
		bson.M{
			"$push": bson.M{field: model.Receipt{UserID: userID, At: time.Now().UTC()}},
		},
	)
	if err != nil {
		return fmt.Errorf("append %s receipt: %w", field, err)
	}
	return nil
}

// MarkPageRead adds read receipts for every listed message the user has not
// read yet. Used by List's read-marking side effect; one UpdateMany instead of
// a receipt per message.
func (m *messageRepository) MarkPageRead(ctx context.Context, chatID, userID string, messageIDs []primitive.ObjectID) error {
	if chatID == "" {
		return ErrInvalidChatID
	}
	if userID == "" {
		return ErrInvalidUserID
	}
	if len(messageIDs) == 0 {
		return nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().
		In("_id", messageIDs).
		Ne("sender_id", userID).
		NotElemMatch("read_by", bson.M{"user_id": userID}).
		Eq("is_deleted", false).
		Build()

	result, err := m.mongoRepo.UpdateManyRaw(ctx, filter, bson.M{
		"$push": bson.M{"read_by": model.Receipt{UserID: userID, At: time.Now().UTC()}},
	})
	if err != nil {
		return fmt.Errorf("mark page read: %w", err)
	}

	if result.ModifiedCount > 0 {
		m.logger.Debug("page marked read",
			zap.String("chat_id", chatID),
			zap.String("user_id", userID),
			zap.Int64("modified", result.ModifiedCount),
		)
	}
	return nil
}

// SoftDelete flags the message deleted, keeping the record for audit. The
// sender-only rule is enforced by the service; the filter here guards against
// double deletion.
func (m *messageRepository) SoftDelete(ctx context.Context, messageID, userID string) error {
	if messageID == "" {
		return ErrInvalidMessageID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	_, err := m.mongoRepo.UpdateRaw(ctx,
		bson.M{
			"_id":        mustObjectID(messageID),
			"is_deleted": false,
		},
		bson.M{"$set": bson.M{
			"is_deleted": true,
			"deleted_at": now,
			"deleted_by": userID,
		}},
	)
	if err != nil {
		return fmt.Errorf("soft delete message: %w", err)
	}
	return nil
}

// DeleteByChat hard-removes every message of a chat. Only the chat purge path
// reaches this.
func (m *messageRepository) DeleteByChat(ctx context.Context, chatID string) (int64, error) {
	if chatID == "" {
		return 0, ErrInvalidChatID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := m.mongoRepo.DeleteMany(ctx, db.NewFilter().ObjectID("chat_id", chatID).Build())
	if err != nil {
		return 0, fmt.Errorf("cascade delete messages: %w", err)
	}

	m.logger.Info("chat messages purged",
		zap.String("chat_id", chatID),
		zap.Int64("deleted", result.DeletedCount),
	)
	return result.DeletedCount, nil
}

func (m *messageRepository) waitForRetry(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt)) * baseRetryDelay
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (m *messageRepository) isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	return mongo.IsTimeout(err) || mongo.IsNetworkError(err)
}
